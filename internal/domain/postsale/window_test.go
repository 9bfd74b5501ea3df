package postsale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbay/fulfillment/internal/domain/fault"
)

func TestCheckWindow(t *testing.T) {
	delivered := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		ok   bool
	}{
		{"same day", delivered, true},
		{"day 7 inclusive", delivered.AddDate(0, 0, 7), true},
		{"day 7 late evening", delivered.AddDate(0, 0, 7).Add(23 * time.Hour), true},
		{"day 8 expired", delivered.AddDate(0, 0, 8), false},
		{"future delivery", delivered.AddDate(0, 0, -1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckWindow(tt.now, delivered)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.KindInvalidInput))
		})
	}
}

func TestNormalizeDeliveryDate(t *testing.T) {
	want := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	t.Run("timestamp", func(t *testing.T) {
		got, err := NormalizeDeliveryDate(time.Date(2026, 8, 10, 17, 45, 3, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("rfc3339 string", func(t *testing.T) {
		got, err := NormalizeDeliveryDate("2026-08-10T17:45:03Z")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("date string", func(t *testing.T) {
		got, err := NormalizeDeliveryDate("2026-08-10")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("garbage string", func(t *testing.T) {
		_, err := NormalizeDeliveryDate("next tuesday")
		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.KindDataIntegrity))
	})

	t.Run("nil", func(t *testing.T) {
		_, err := NormalizeDeliveryDate(nil)
		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.KindDataIntegrity))
	})

	t.Run("zero time", func(t *testing.T) {
		_, err := NormalizeDeliveryDate(time.Time{})
		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.KindDataIntegrity))
	})

	t.Run("unexpected type", func(t *testing.T) {
		_, err := NormalizeDeliveryDate(42)
		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.KindDataIntegrity))
	})
}
