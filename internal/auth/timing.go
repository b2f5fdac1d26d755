package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// FailureDelay pads failed credential checks to a minimum duration so that
// an unknown email and a wrong password take about the same time.
type FailureDelay struct {
	base   time.Duration
	jitter time.Duration
	sleep  func(time.Duration)
}

func NewFailureDelay(base, jitter time.Duration) *FailureDelay {
	return &FailureDelay{base: base, jitter: jitter, sleep: time.Sleep}
}

// WaitFrom sleeps until at least base+jitter has elapsed since start.
// Successful checks return immediately.
func (fd *FailureDelay) WaitFrom(start time.Time, success bool) {
	if fd == nil || success {
		return
	}

	target := fd.base + fd.randomJitter()
	if elapsed := time.Since(start); elapsed < target {
		fd.sleep(target - elapsed)
	}
}

func (fd *FailureDelay) randomJitter() time.Duration {
	if fd.jitter <= 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(b[:]) % uint64(fd.jitter))
}
