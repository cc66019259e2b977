package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesPolicy(t *testing.T) {
	_, err := New(nil, "crm:", 0, time.Minute)
	assert.Error(t, err)

	_, err = New(nil, "crm:", 10, 0)
	assert.Error(t, err)

	l, err := New(nil, "crm:", 300, time.Minute)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, l.rate, 1e-9)
	assert.Equal(t, 300.0, l.capacity)
	assert.Equal(t, 2*time.Minute, l.expiration)
}

func TestKeyFormat(t *testing.T) {
	l, err := New(nil, "crm:", 300, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "crm:ratelimit:10.0.0.1", l.key("10.0.0.1"))
}
