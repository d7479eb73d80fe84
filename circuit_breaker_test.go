package tiptop

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psfkit/tiptop/fits"
)

func TestCircuitBreakerTripsOnTransportFailures(t *testing.T) {
	cb := NewCircuitBreakerConfig(1, time.Minute, time.Minute)("test-endpoint")

	fail := func() (*fits.File, error) {
		return nil, &TransportError{Err: errors.New("connection refused")}
	}

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(fail)
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr, "call %d", i)
	}

	// three straight failures trip the breaker
	_, err := cb.Execute(fail)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreakerStaysClosedOnConfigErrors(t *testing.T) {
	cb := NewCircuitBreakerConfig(1, time.Minute, time.Minute)("test-endpoint")

	// the endpoint answers fine, the configs are just wrong
	for i := 0; i < 10; i++ {
		_, err := cb.Execute(func() (*fits.File, error) {
			return nil, &ConfigRejectedError{Message: "bad config"}
		})
		var rejected *ConfigRejectedError
		require.ErrorAs(t, err, &rejected)
	}
	for i := 0; i < 10; i++ {
		_, err := cb.Execute(func() (*fits.File, error) {
			return nil, &ServiceExitError{Code: 1}
		})
		var exit *ServiceExitError
		require.ErrorAs(t, err, &exit)
	}

	f, err := cb.Execute(func() (*fits.File, error) {
		return fits.NewFile(), nil
	})
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreakerConfig(1, time.Minute, 30*time.Millisecond)("test-endpoint")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (*fits.File, error) {
			return nil, &TransportError{Err: errors.New("down")}
		})
	}
	_, err := cb.Execute(func() (*fits.File, error) { return fits.NewFile(), nil })
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	time.Sleep(50 * time.Millisecond)

	f, err := cb.Execute(func() (*fits.File, error) { return fits.NewFile(), nil })
	require.NoError(t, err)
	assert.NotNil(t, f)
}
