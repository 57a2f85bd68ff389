package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateKeyUsesConfiguredZone(t *testing.T) {
	cal, err := New("America/Sao_Paulo")
	require.NoError(t, err)

	// 2024-04-02 01:30 UTC is still 2024-04-01 in São Paulo (UTC-3).
	ts := time.Date(2024, 4, 2, 1, 30, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, "2024-04-01", cal.DateKey(ts))

	utc, err := New("UTC")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", utc.DateKey(ts))
}

func TestNewRejectsUnknownZone(t *testing.T) {
	_, err := New("Not/AZone")
	assert.Error(t, err)
}
