package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// newOrderNumber builds a human-readable, roughly monotonic order number:
// a date component plus a random suffix to break same-millisecond ties.
func newOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), suffix)
}
