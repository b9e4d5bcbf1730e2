package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

var (
	mu   sync.Mutex
	last int64
)

// New returns a creation-time ordered id. The nanosecond component is forced
// strictly increasing within the process so ids assigned in the same instant
// still sort by creation order.
func New(prefix string) string {
	mu.Lock()
	now := time.Now().UnixNano()
	if now <= last {
		now = last + 1
	}
	last = now
	mu.Unlock()

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, now)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now, hex.EncodeToString(buf))
}
