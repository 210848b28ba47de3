package entities

import (
	"fmt"
	"math/rand"
	"time"
)

// NewOrderNumber builds a human readable order number of the form
// PREFIX-<8 digits>-<4 digits>: the last eight digits of the current unix
// millisecond timestamp plus a random four digit suffix. Uniqueness is not
// assumed, callers retry on a duplicate key error.
func NewOrderNumber(prefix string) string {
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	return fmt.Sprintf("%s-%s-%04d", prefix, ts[len(ts)-8:], rand.Intn(10000))
}
