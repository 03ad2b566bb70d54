package configutil

import (
	"fmt"
	"sync"

	"github.com/theblitlabs/parity-stake/internal/config"
)

var (
	configPath   = config.DefaultConfigPath
	cachedConfig *config.Config
	configMutex  sync.RWMutex
)

// SetConfigPath changes the file GetConfig reads and drops any cached copy.
func SetConfigPath(path string) {
	configMutex.Lock()
	defer configMutex.Unlock()
	configPath = path
	cachedConfig = nil
}

// GetConfig loads the configuration, using a cached version if available
func GetConfig() (*config.Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	if cachedConfig != nil {
		return cachedConfig, nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	cachedConfig = cfg
	return cfg, nil
}

// ClearCache clears the cached configuration
func ClearCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}
