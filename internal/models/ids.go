package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const idTimeLayout = "20060102T150405.000000000Z"

// NewID returns "<utc timestamp>-<8 hex>". The timestamp is fixed width so ids
// sort in creation order.
func NewID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return t.UTC().Format(idTimeLayout) + "-" + suffix
}

// IDTime recovers the creation time encoded in an id.
func IDTime(id string) (time.Time, bool) {
	i := strings.LastIndex(id, "-")
	if i <= 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(idTimeLayout, id[:i])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
