package tiptop

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/psfkit/tiptop/fits"
)

// CircuitBreaker short-circuits exchanges while the endpoint keeps failing.
// Implemented by gobreaker.CircuitBreaker[*fits.File].
type CircuitBreaker interface {
	Execute(req func() (*fits.File, error)) (*fits.File, error)
}

// NewCircuitBreakerConfig returns a function that creates circuit breakers
// for endpoints. This is a helper for common use cases.
//
// Config rejections and service exit codes count as successful exchanges
// for the breaker: the transport was healthy, the failure is in the
// submitted configuration or the simulation itself.
func NewCircuitBreakerConfig(maxRequests uint32, interval, timeout time.Duration) func(endpoint string) CircuitBreaker {
	return func(endpoint string) CircuitBreaker {
		settings := gobreaker.Settings{
			Name:        endpoint,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				var rejected *ConfigRejectedError
				var exit *ServiceExitError
				return errors.As(err, &rejected) || errors.As(err, &exit)
			},
		}
		return gobreaker.NewCircuitBreaker[*fits.File](settings)
	}
}
