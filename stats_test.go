package tiptop

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsFailureClassification(t *testing.T) {
	c := &clientStatsCollector{}

	c.recordFailure(&ConfigRejectedError{Message: "bad config"})
	c.recordFailure(&ServiceExitError{Code: 1})
	c.recordFailure(&TransportError{Err: assert.AnError})
	c.recordFailure(&ServerHTTPError{Status: 502})
	c.recordFailure(&MissingResultError{})

	stats := c.snapshot()
	assert.Equal(t, uint64(1), stats.Rejected)
	assert.Equal(t, uint64(1), stats.ServiceErrors)
	assert.Equal(t, uint64(1), stats.TransportErrors)
	assert.Equal(t, uint64(1), stats.HTTPErrors)
	assert.Equal(t, uint64(1), stats.MissingResults)
	assert.Equal(t, uint64(0), stats.Successes)
}

func TestStatsCacheHitCountsAsSuccess(t *testing.T) {
	c := &clientStatsCollector{}
	c.recordRequest()
	c.recordCacheHit()

	stats := c.snapshot()
	assert.Equal(t, uint64(1), stats.Requests)
	assert.Equal(t, uint64(1), stats.CacheHits)
	assert.Equal(t, uint64(1), stats.Successes)
}

func TestStatsConcurrentUpdates(t *testing.T) {
	c := &clientStatsCollector{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.recordRequest()
			c.recordSuccess()
			c.recordBytes(10)
		}()
	}
	wg.Wait()

	stats := c.snapshot()
	assert.Equal(t, uint64(50), stats.Requests)
	assert.Equal(t, uint64(50), stats.Successes)
	assert.Equal(t, uint64(500), stats.BytesReceived)
}
