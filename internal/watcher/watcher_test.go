package watcher

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterPoller struct {
	n     atomic.Uint64
	fails atomic.Bool
}

func (p *counterPoller) BlockNumber(ctx context.Context) (uint64, error) {
	if p.fails.Load() {
		return 0, errors.New("rpc unavailable")
	}
	return p.n.Add(1), nil
}

type fakeHeads struct {
	mu       sync.Mutex
	attempts int
	headers  chan<- *types.Header
	failWith error
	ready    chan struct{}
}

func (f *fakeHeads) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.headers = ch
	close(f.ready)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (f *fakeHeads) send(n int64) {
	f.mu.Lock()
	ch := f.headers
	f.mu.Unlock()
	ch <- &types.Header{Number: big.NewInt(n)}
}

func receive(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for block")
		return 0
	}
}

func TestWatcher_Polling(t *testing.T) {
	poller := &counterPoller{}
	w := New(nil, poller, 10*time.Millisecond)

	blocks, unsubscribe := w.Subscribe()
	defer unsubscribe()

	w.Start(context.Background())
	defer w.Stop()

	first := receive(t, blocks)
	second := receive(t, blocks)
	assert.Greater(t, second, first)
	assert.GreaterOrEqual(t, w.Latest(), second)
}

func TestWatcher_FollowsHeads(t *testing.T) {
	heads := &fakeHeads{ready: make(chan struct{})}
	w := New(heads, nil, time.Hour)

	blocks, unsubscribe := w.Subscribe()
	defer unsubscribe()

	w.Start(context.Background())
	defer w.Stop()

	select {
	case <-heads.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never subscribed")
	}

	heads.send(100)
	assert.Equal(t, uint64(100), receive(t, blocks))

	// stale and repeated heads are not republished
	heads.send(99)
	heads.send(100)
	heads.send(101)
	assert.Equal(t, uint64(101), receive(t, blocks))
	assert.Equal(t, uint64(101), w.Latest())
}

func TestWatcher_FallsBackToPolling(t *testing.T) {
	heads := &fakeHeads{failWith: errors.New("ws dial failed"), ready: make(chan struct{})}
	poller := &counterPoller{}
	w := New(heads, poller, 10*time.Millisecond)

	blocks, unsubscribe := w.Subscribe()
	defer unsubscribe()

	w.Start(context.Background())
	defer w.Stop()

	assert.NotZero(t, receive(t, blocks))
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	poller := &counterPoller{}
	poller.fails.Store(true)
	w := New(nil, poller, 10*time.Millisecond)

	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()

	assert.Zero(t, w.Latest())
}

func TestWatcher_Unsubscribe(t *testing.T) {
	w := New(nil, nil, time.Second)
	_, unsubscribe := w.Subscribe()
	unsubscribe()
	unsubscribe()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Empty(t, w.subs)
}

func TestNextDelay(t *testing.T) {
	assert.Equal(t, 4*time.Second, nextDelay(2*time.Second))
	assert.Equal(t, reconnectMax, nextDelay(45*time.Second))
	assert.Equal(t, reconnectMax, nextDelay(reconnectMax))
}

func TestSleepOrDone(t *testing.T) {
	assert.True(t, sleepOrDone(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepOrDone(ctx, time.Hour))
	assert.False(t, sleepOrDone(ctx, 0))
}
