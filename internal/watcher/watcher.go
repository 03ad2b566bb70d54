package watcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/theblitlabs/parity-stake/internal/telemetry"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

const (
	subscriberBuffer    = 4
	defaultPollInterval = 12 * time.Second
	reconnectBase       = 2 * time.Second
	reconnectMax        = time.Minute
)

var errSubscriptionClosed = errors.New("head subscription closed")

// HeadSubscriber is implemented by an ethclient dialed over websocket.
type HeadSubscriber interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// BlockNumberer is implemented by any ethclient.
type BlockNumberer interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Watcher reports each new block number to its subscribers. It follows new
// heads when a HeadSubscriber is given and polls otherwise, or while the
// subscription is down.
type Watcher struct {
	heads    HeadSubscriber
	poller   BlockNumberer
	interval time.Duration

	last    atomic.Uint64
	running atomic.Bool

	mu     sync.Mutex
	nextID int
	subs   map[int]chan uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a watcher. heads may be nil.
func New(heads HeadSubscriber, poller BlockNumberer, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Watcher{
		heads:    heads,
		poller:   poller,
		interval: interval,
		subs:     make(map[int]chan uint64),
	}
}

// Start runs the watcher until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	w.mu.Lock()
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	go func() {
		defer close(done)
		w.run(ctx)
	}()
}

// Stop halts the watcher and waits for it to exit. Safe to call repeatedly.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.running.Store(false)
}

// Subscribe returns a channel of block numbers and a function that
// unsubscribes. Slow subscribers miss blocks rather than stall the watcher.
func (w *Watcher) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, subscriberBuffer)

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = ch
	w.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
		})
	}
}

// Latest returns the highest block seen so far, or 0
func (w *Watcher) Latest() uint64 {
	return w.last.Load()
}

func (w *Watcher) run(ctx context.Context) {
	log := logger.WithComponent("watcher")
	delay := reconnectBase

	for {
		if w.heads != nil {
			err := w.followHeads(ctx)
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Dur("retry_in", delay).Msg("Head subscription failed - polling")
		}

		// poll forever without a subscriber, else until the next retry
		window := time.Duration(0)
		if w.heads != nil {
			window = delay
			delay = nextDelay(delay)
		}
		if !w.poll(ctx, window) {
			return
		}
	}
}

func (w *Watcher) followHeads(ctx context.Context) error {
	headers := make(chan *types.Header, 16)
	sub, err := w.heads.SubscribeNewHead(ctx, headers)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	log := logger.WithComponent("watcher")
	log.Info().Msg("Subscribed to new heads")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errSubscriptionClosed
			}
			return err
		case h := <-headers:
			if h != nil && h.Number != nil {
				w.publish(h.Number.Uint64())
			}
		}
	}
}

// poll checks the block number every interval. A zero window polls until ctx
// is done. It returns false once ctx is done.
func (w *Watcher) poll(ctx context.Context, window time.Duration) bool {
	if w.poller == nil {
		return sleepOrDone(ctx, window)
	}

	var deadline <-chan time.Time
	if window > 0 {
		t := time.NewTimer(window)
		defer t.Stop()
		deadline = t.C
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline:
			return true
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) {
	n, err := w.poller.BlockNumber(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log := logger.WithComponent("watcher")
			log.Debug().Err(err).Msg("Block number poll failed")
			telemetry.RecordError("poll_block", "watcher")
		}
		return
	}
	w.publish(n)
}

// publish fans n out if it is newer than anything seen before.
func (w *Watcher) publish(n uint64) {
	for {
		last := w.last.Load()
		if n <= last {
			return
		}
		if w.last.CompareAndSwap(last, n) {
			break
		}
	}

	telemetry.RecordBlock(n)

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		<-ctx.Done()
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > reconnectMax {
		next = reconnectMax
	}
	return next
}
