package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsQueuedTasks(t *testing.T) {
	pool := NewPool(4, 16)
	var done int64
	for i := 0; i < 50; i++ {
		pool.Exec(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Close()
	pool.Wait()
	assert.Equal(t, int64(50), atomic.LoadInt64(&done))
}

func TestPoolResize(t *testing.T) {
	pool := NewPool(1, 4)
	pool.Resize(3)
	var done int64
	for i := 0; i < 10; i++ {
		pool.Exec(func() {
			atomic.AddInt64(&done, 1)
		})
	}
	pool.Close()
	pool.Wait()
	assert.Equal(t, int64(10), atomic.LoadInt64(&done))
}
