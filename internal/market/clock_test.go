package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockIsOpen(t *testing.T) {
	clock := NewClock(time.UTC)

	// 2024-01-02 is a Tuesday, 2024-01-06 a Saturday, 2024-01-07 a Sunday.
	tests := []struct {
		name string
		day  int
		hour int
		min  int
		want bool
	}{
		{"before morning open", 2, 9, 29, false},
		{"morning open", 2, 9, 30, true},
		{"mid morning", 2, 10, 0, true},
		{"morning close is tradable", 2, 11, 30, true},
		{"lunch break", 2, 12, 0, false},
		{"just before afternoon open", 2, 12, 59, false},
		{"afternoon open", 2, 13, 0, true},
		{"mid afternoon", 2, 14, 30, true},
		{"last afternoon minute", 2, 14, 59, true},
		{"afternoon close is not tradable", 2, 15, 0, false},
		{"evening", 2, 20, 0, false},
		{"saturday during session hours", 6, 10, 0, false},
		{"sunday during session hours", 7, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := time.Date(2024, time.January, tt.day, tt.hour, tt.min, 0, 0, time.UTC)
			assert.Equal(t, tt.want, clock.IsOpen(at))
		})
	}
}

func TestClockConvertsToExchangeTimezone(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)
	clock := NewClock(shanghai)

	// 02:00 UTC on a Tuesday is 10:00 in Shanghai, inside the morning session.
	at := time.Date(2024, time.January, 2, 2, 0, 0, 0, time.UTC)
	assert.True(t, clock.IsOpen(at))

	// 10:00 UTC is 18:00 in Shanghai, after the close.
	at = time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)
	assert.False(t, clock.IsOpen(at))
}

func TestClockNilLocationDefaultsToLocal(t *testing.T) {
	clock := NewClock(nil)
	assert.NotNil(t, clock.loc)
}
