package health

import (
	"context"
	"sync"
	"time"

	"github.com/theblitlabs/parity-stake/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	// StatusOK indicates the component is healthy
	StatusOK Status = "OK"
	// StatusWarning indicates the component has issues but is still functional
	StatusWarning Status = "WARNING"
	// StatusError indicates the component is not functioning
	StatusError Status = "ERROR"
)

// ComponentHealth represents the health status of a system component
type ComponentHealth struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	LastChecked time.Time `json:"last_checked"`
}

// CheckFunc probes one component.
type CheckFunc func(ctx context.Context) (Status, string)

// HealthChecker runs registered checks periodically and keeps the last result
// of each.
type HealthChecker struct {
	mu         sync.RWMutex
	checks     map[string]CheckFunc
	components map[string]*ComponentHealth

	checkFreq    time.Duration
	checkTimeout time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(checkFreq time.Duration) *HealthChecker {
	if checkFreq == 0 {
		checkFreq = 30 * time.Second
	}

	return &HealthChecker{
		checks:       make(map[string]CheckFunc),
		components:   make(map[string]*ComponentHealth),
		checkFreq:    checkFreq,
		checkTimeout: 5 * time.Second,
	}
}

// Register adds a named check. Call before Start.
func (hc *HealthChecker) Register(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// Start begins periodic health checks
func (hc *HealthChecker) Start(ctx context.Context) {
	log := logger.WithComponent("health_checker")
	log.Info().Dur("frequency", hc.checkFreq).Msg("Starting health checker")

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	hc.mu.Lock()
	hc.cancel, hc.done = cancel, done
	hc.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(hc.checkFreq)
		defer ticker.Stop()

		hc.CheckAll(ctx)

		for {
			select {
			case <-ticker.C:
				hc.CheckAll(ctx)
			case <-ctx.Done():
				log.Info().Msg("Health checker stopped")
				return
			}
		}
	}()
}

// Stop halts the health checker
func (hc *HealthChecker) Stop() {
	hc.mu.Lock()
	cancel, done := hc.cancel, hc.done
	hc.cancel, hc.done = nil, nil
	hc.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// CheckAll runs all health checks
func (hc *HealthChecker) CheckAll(ctx context.Context) {
	hc.mu.RLock()
	checks := make(map[string]CheckFunc, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.RUnlock()

	for name, check := range checks {
		hc.run(ctx, name, check)
	}
}

func (hc *HealthChecker) run(ctx context.Context, name string, check CheckFunc) {
	log := logger.WithComponent("health_checker." + name)

	checkCtx, cancel := context.WithTimeout(ctx, hc.checkTimeout)
	status, message := check(checkCtx)
	cancel()

	switch status {
	case StatusError:
		log.Error().Msg(message)
	case StatusWarning:
		log.Warn().Msg(message)
	default:
		log.Debug().Msg(message)
	}

	hc.mu.Lock()
	hc.components[name] = &ComponentHealth{
		Name:        name,
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
	}
	hc.mu.Unlock()
}

// GetAllHealth returns the health status of all components
func (hc *HealthChecker) GetAllHealth() map[string]*ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	// Create a copy to avoid race conditions
	result := make(map[string]*ComponentHealth, len(hc.components))
	for k, v := range hc.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// Overall returns the worst status across components. Nothing checked yet is
// reported as OK.
func (hc *HealthChecker) Overall() Status {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	overall := StatusOK
	for _, c := range hc.components {
		switch c.Status {
		case StatusError:
			return StatusError
		case StatusWarning:
			overall = StatusWarning
		}
	}
	return overall
}
