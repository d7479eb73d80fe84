package tiptop

import (
	"errors"
	"sync/atomic"
)

// ClientStats contains counters for client operations.
// All fields are safe for concurrent access.
//
// For Prometheus integration, expose these as:
//   - Counters: Requests, Successes, CacheHits, BytesReceived
//   - Counters with a reason label: Rejected, ServiceErrors,
//     TransportErrors, HTTPErrors, MissingResults
type ClientStats struct {
	Requests        uint64 // Exchanges attempted (cache hits included)
	Successes       uint64 // Exchanges that returned a usable result
	CacheHits       uint64 // Requests served from the result cache
	Rejected        uint64 // Configs the server could not parse
	ServiceErrors   uint64 // Non-zero administrative exit codes
	TransportErrors uint64 // DNS/connect/timeout failures
	HTTPErrors      uint64 // Non-200 HTTP statuses
	MissingResults  uint64 // 200 responses without a usable binary part
	BytesReceived   uint64 // Total response part bytes decoded
}

// clientStatsCollector provides internal methods for updating client stats.
type clientStatsCollector struct {
	stats ClientStats
}

func (c *clientStatsCollector) recordRequest() {
	atomic.AddUint64(&c.stats.Requests, 1)
}

func (c *clientStatsCollector) recordSuccess() {
	atomic.AddUint64(&c.stats.Successes, 1)
}

func (c *clientStatsCollector) recordCacheHit() {
	atomic.AddUint64(&c.stats.CacheHits, 1)
	atomic.AddUint64(&c.stats.Successes, 1)
}

func (c *clientStatsCollector) recordBytes(n int) {
	atomic.AddUint64(&c.stats.BytesReceived, uint64(n))
}

func (c *clientStatsCollector) recordFailure(err error) {
	var (
		rejected  *ConfigRejectedError
		exit      *ServiceExitError
		transport *TransportError
		httpErr   *ServerHTTPError
		missing   *MissingResultError
	)
	switch {
	case errors.As(err, &rejected):
		atomic.AddUint64(&c.stats.Rejected, 1)
	case errors.As(err, &exit):
		atomic.AddUint64(&c.stats.ServiceErrors, 1)
	case errors.As(err, &transport):
		atomic.AddUint64(&c.stats.TransportErrors, 1)
	case errors.As(err, &httpErr):
		atomic.AddUint64(&c.stats.HTTPErrors, 1)
	case errors.As(err, &missing):
		atomic.AddUint64(&c.stats.MissingResults, 1)
	}
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Requests:        atomic.LoadUint64(&c.stats.Requests),
		Successes:       atomic.LoadUint64(&c.stats.Successes),
		CacheHits:       atomic.LoadUint64(&c.stats.CacheHits),
		Rejected:        atomic.LoadUint64(&c.stats.Rejected),
		ServiceErrors:   atomic.LoadUint64(&c.stats.ServiceErrors),
		TransportErrors: atomic.LoadUint64(&c.stats.TransportErrors),
		HTTPErrors:      atomic.LoadUint64(&c.stats.HTTPErrors),
		MissingResults:  atomic.LoadUint64(&c.stats.MissingResults),
		BytesReceived:   atomic.LoadUint64(&c.stats.BytesReceived),
	}
}
