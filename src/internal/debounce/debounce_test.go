package debounce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_SingleCallProceeds(t *testing.T) {
	d := New(10 * time.Millisecond)
	start := time.Now()
	require.NoError(t, d.Wait(context.Background(), "client-1"))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Zero(t, d.Pending())
}

func TestWait_NewerCallSupersedesPending(t *testing.T) {
	d := New(50 * time.Millisecond)
	first := make(chan error, 1)

	go func() { first <- d.Wait(context.Background(), "client-1") }()
	require.Eventually(t, func() bool { return d.Pending() == 1 }, time.Second, time.Millisecond)

	second := d.Wait(context.Background(), "client-1")

	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.NoError(t, second)
}

func TestWait_KeysAreIndependent(t *testing.T) {
	d := New(20 * time.Millisecond)
	errs := make(chan error, 2)

	go func() { errs <- d.Wait(context.Background(), "a") }()
	go func() { errs <- d.Wait(context.Background(), "b") }()

	assert.NoError(t, <-errs)
	assert.NoError(t, <-errs)
}

func TestWait_ContextCancelled(t *testing.T) {
	d := New(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, d.Wait(ctx, "client-1"), context.Canceled)
	assert.Zero(t, d.Pending())
}

func TestCancel_SupersedesPending(t *testing.T) {
	d := New(time.Minute)
	errCh := make(chan error, 1)
	go func() { errCh <- d.Wait(context.Background(), "client-1") }()
	require.Eventually(t, func() bool { return d.Pending() == 1 }, time.Second, time.Millisecond)

	d.Cancel("client-1")
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
}

func TestStop_SupersedesAll(t *testing.T) {
	d := New(time.Minute)
	errCh := make(chan error, 2)
	go func() { errCh <- d.Wait(context.Background(), "a") }()
	go func() { errCh <- d.Wait(context.Background(), "b") }()
	require.Eventually(t, func() bool { return d.Pending() == 2 }, time.Second, time.Millisecond)

	d.Stop()
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
}

func TestWait_ZeroDelay(t *testing.T) {
	d := New(0)
	assert.NoError(t, d.Wait(context.Background(), "a"))
}
