package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.True(t, IsTransient(Transient(errors.New("wrapped"))))
	assert.True(t, IsTransient(fmt.Errorf("call: %w", Transient(errors.New("deep")))))
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(syscall.ECONNREFUSED))
}

func TestTransientNil(t *testing.T) {
	assert.NoError(t, Transient(nil))
}

func TestTransientUnwrap(t *testing.T) {
	inner := errors.New("inner")
	assert.ErrorIs(t, Transient(inner), inner)
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, status := range []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	} {
		assert.True(t, IsTransientHTTPStatus(status), "status %d", status)
	}
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized} {
		assert.False(t, IsTransientHTTPStatus(status), "status %d", status)
	}
}
