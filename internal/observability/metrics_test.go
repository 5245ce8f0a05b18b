package observability

import (
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterOnlineUsers(t *testing.T) {
	online := 3.0
	gauge := RegisterOnlineUsers(func() float64 { return online })

	assert.Equal(t, 3.0, promtest.ToFloat64(gauge))
	online = 1
	assert.Equal(t, 1.0, promtest.ToFloat64(gauge))
}
