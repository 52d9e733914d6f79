package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// --- Mock Flusher ---

type mockFlusher struct {
	mu      sync.Mutex
	dirty   bool
	flushFn func() error
	flushes int
}

func (m *mockFlusher) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

func (m *mockFlusher) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
	if m.flushFn != nil {
		if err := m.flushFn(); err != nil {
			return err
		}
	}
	m.dirty = false
	return nil
}

func (m *mockFlusher) flushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// --- Tests ---

func TestReconcile_CleanStoreIsNotFlushed(t *testing.T) {
	store := &mockFlusher{}
	r := New(store, time.Minute)

	r.reconcile(context.Background())

	assert.Equal(t, 0, store.flushCount())
}

func TestReconcile_DirtyStoreIsFlushed(t *testing.T) {
	store := &mockFlusher{dirty: true}
	r := New(store, time.Minute)

	r.reconcile(context.Background())

	assert.Equal(t, 1, store.flushCount())
	assert.False(t, store.Dirty())
}

func TestReconcile_FailedFlushStaysDirty(t *testing.T) {
	store := &mockFlusher{dirty: true, flushFn: func() error { return errors.New("unavailable") }}
	r := New(store, time.Minute)

	r.reconcile(context.Background())
	r.reconcile(context.Background())

	assert.Equal(t, 2, store.flushCount())
	assert.True(t, store.Dirty())
}

func TestReconcile_CancelledContextSkips(t *testing.T) {
	store := &mockFlusher{dirty: true}
	r := New(store, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.reconcile(ctx)

	assert.Equal(t, 0, store.flushCount())
}

func TestStart_FlushesOnTickAndStopsOnCancel(t *testing.T) {
	store := &mockFlusher{dirty: true}
	r := New(store, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.flushCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after cancel")
	}
	assert.False(t, store.Dirty())
}
