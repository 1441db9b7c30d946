package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	time.Sleep(25 * time.Millisecond)
	assert.True(t, tb.Allow())
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWaitBlocksUntilRefill(t *testing.T) {
	tb := NewTokenBucket(1, 30*time.Millisecond)
	assert.True(t, tb.Allow())

	start := time.Now()
	tb.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestTokenBucketConcurrentAccess(t *testing.T) {
	tb := NewTokenBucket(50, time.Hour)

	done := make(chan int)
	for i := 0; i < 10; i++ {
		go func() {
			allowed := 0
			for j := 0; j < 10; j++ {
				if tb.Allow() {
					allowed++
				}
			}
			done <- allowed
		}()
	}

	total := 0
	for i := 0; i < 10; i++ {
		total += <-done
	}
	assert.Equal(t, 50, total, "exactly capacity tokens handed out")
}
