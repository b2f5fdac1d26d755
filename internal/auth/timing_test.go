package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFailureDelay_WaitFrom(t *testing.T) {
	var slept time.Duration
	fd := NewFailureDelay(200*time.Millisecond, 0)
	fd.sleep = func(d time.Duration) { slept = d }

	fd.WaitFrom(time.Now(), false)
	assert.Greater(t, slept, 150*time.Millisecond)
	assert.LessOrEqual(t, slept, 200*time.Millisecond)
}

func TestFailureDelay_SuccessReturnsImmediately(t *testing.T) {
	called := false
	fd := NewFailureDelay(time.Second, 0)
	fd.sleep = func(time.Duration) { called = true }

	fd.WaitFrom(time.Now(), true)
	assert.False(t, called)
}

func TestFailureDelay_AlreadyElapsed(t *testing.T) {
	called := false
	fd := NewFailureDelay(10*time.Millisecond, 0)
	fd.sleep = func(time.Duration) { called = true }

	fd.WaitFrom(time.Now().Add(-time.Second), false)
	assert.False(t, called)
}

func TestFailureDelay_Nil(t *testing.T) {
	var fd *FailureDelay
	assert.NotPanics(t, func() { fd.WaitFrom(time.Now(), false) })
}
