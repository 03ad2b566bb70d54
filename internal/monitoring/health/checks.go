package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BlockNumberer is implemented by any ethclient.
type BlockNumberer interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// BlockTracker reports the latest block seen locally.
type BlockTracker interface {
	Latest() uint64
}

// NodeCheck reports ERROR when the node does not answer eth_blockNumber.
func NodeCheck(node BlockNumberer) CheckFunc {
	return func(ctx context.Context) (Status, string) {
		n, err := node.BlockNumber(ctx)
		if err != nil {
			return StatusError, fmt.Sprintf("Node not responding: %v", err)
		}
		return StatusOK, fmt.Sprintf("Node at block %d", n)
	}
}

// ProgressCheck reports WARNING when the tracked block has not advanced for
// maxAge.
func ProgressCheck(blocks BlockTracker, maxAge time.Duration) CheckFunc {
	var (
		mu        sync.Mutex
		last      uint64
		changedAt = time.Now()
	)
	return func(ctx context.Context) (Status, string) {
		mu.Lock()
		defer mu.Unlock()

		n := blocks.Latest()
		if n != last {
			last, changedAt = n, time.Now()
		}
		if n == 0 {
			return StatusWarning, "No block seen yet"
		}
		if age := time.Since(changedAt); age > maxAge {
			return StatusWarning, fmt.Sprintf("No new block since %d for %s", n, age.Round(time.Second))
		}
		return StatusOK, fmt.Sprintf("Latest block %d", n)
	}
}

// SignerCheck reports WARNING when no signing key is loaded.
func SignerCheck(available func() bool) CheckFunc {
	return func(ctx context.Context) (Status, string) {
		if !available() {
			return StatusWarning, "No private key loaded - writes disabled"
		}
		return StatusOK, "Signer loaded"
	}
}
