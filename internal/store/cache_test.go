package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadCache_TTL(t *testing.T) {
	clock := &manualClock{now: epoch}
	c := NewReadCache(10*time.Second, clock.Now)

	_, _, ok := c.Get()
	assert.False(t, ok)

	c.Put([]byte("log"), "abc")
	data, sha, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, "log", string(data))
	assert.Equal(t, "abc", sha)

	clock.Advance(10 * time.Second)
	_, _, ok = c.Get()
	assert.False(t, ok)

	c.Put([]byte("log"), "abc")
	c.Invalidate()
	_, _, ok = c.Get()
	assert.False(t, ok)
}

func TestReadCache_NilAndDisabled(t *testing.T) {
	var c *ReadCache
	c.Put([]byte("x"), "y")
	c.Invalidate()
	_, _, ok := c.Get()
	assert.False(t, ok)

	off := NewReadCache(0, nil)
	off.Put([]byte("x"), "y")
	_, _, ok = off.Get()
	assert.False(t, ok)
}
