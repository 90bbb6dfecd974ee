package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 9 * * *", false},
		{"*/5 * * * *", false},
		{"0 0 * * 0", false},
		{"15,45 8-17 * * 1-5", false},
		{"* * * *", true},       // four fields
		{"60 * * * *", true},    // minute out of range
		{"* 24 * * *", true},    // hour out of range
		{"x * * * *", true},     // not a number
		{"*/0 * * * *", true},   // zero step
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCronExpression_Next(t *testing.T) {
	// Wednesday 2025-06-11 10:30 UTC.
	base := time.Date(2025, 6, 11, 10, 30, 0, 0, time.UTC)

	t.Run("daily fire later the same day", func(t *testing.T) {
		ce := DailyAt(18, 0)
		next := ce.Next(base)
		assert.Equal(t, time.Date(2025, 6, 11, 18, 0, 0, 0, time.UTC), next)
	})

	t.Run("daily fire rolls to next day when passed", func(t *testing.T) {
		ce := DailyAt(9, 0)
		next := ce.Next(base)
		assert.Equal(t, time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("every five minutes", func(t *testing.T) {
		ce := MustParseCron("*/5 * * * *")
		next := ce.Next(base)
		assert.Equal(t, time.Date(2025, 6, 11, 10, 35, 0, 0, time.UTC), next)
	})

	t.Run("weekly on sunday midnight", func(t *testing.T) {
		ce := MustParseCron("0 0 * * 0")
		next := ce.Next(base)
		assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), next)
		assert.Equal(t, time.Sunday, next.Weekday())
	})

	t.Run("exactly at fire time advances a full day", func(t *testing.T) {
		ce := DailyAt(10, 30)
		next := ce.Next(base)
		assert.Equal(t, time.Date(2025, 6, 12, 10, 30, 0, 0, time.UTC), next)
	})
}

func TestDailyAt(t *testing.T) {
	ce := DailyAt(7, 45)
	require.NotNil(t, ce)
	assert.Equal(t, "45 7 * * *", ce.String())
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(5 * time.Minute)
	base := time.Date(2025, 6, 11, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, base.Add(5*time.Minute), s.Next(base))
}
