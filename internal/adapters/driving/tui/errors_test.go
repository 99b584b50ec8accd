package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
)

func TestErrMissingSearchService_IsServiceUnavailable(t *testing.T) {
	var unavailable messages.ServiceUnavailable
	assert.True(t, errors.As(ErrMissingSearchService, &unavailable))
	assert.Equal(t, "search", unavailable.Service)
	assert.Equal(t, "search service not available", ErrMissingSearchService.Error())
}

func TestErrNilPorts(t *testing.T) {
	assert.NotErrorIs(t, ErrNilPorts, ErrMissingSearchService)
	assert.Contains(t, ErrNilPorts.Error(), "no ports")
}
