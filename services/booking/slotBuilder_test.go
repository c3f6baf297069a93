package booking

import (
	"testing"
	"time"

	"beautybook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(slots []time.Time) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(clockLayout))
	}
	return out
}

func TestGenerateSlots(t *testing.T) {
	t.Run("hour service on half-hour grid", func(t *testing.T) {
		slots, err := GenerateSlots("2025-06-01", "09:00", "17:00", 30, 60, time.UTC)
		require.NoError(t, err)

		got := labels(slots)
		assert.Len(t, got, 15)
		assert.Equal(t, "09:00", got[0])
		assert.Equal(t, "16:00", got[len(got)-1])
		assert.NotContains(t, got, "16:30")
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := GenerateSlots("2025-06-01", "09:00", "17:00", 15, 45, time.UTC)
		require.NoError(t, err)
		b, err := GenerateSlots("2025-06-01", "09:00", "17:00", 15, 45, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("closing at midnight", func(t *testing.T) {
		slots, err := GenerateSlots("2025-06-01", "22:00", "24:00", 30, 60, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, []string{"22:00", "22:30", "23:00"}, labels(slots))
	})

	t.Run("service longer than opening hours", func(t *testing.T) {
		slots, err := GenerateSlots("2025-06-01", "09:00", "10:00", 30, 90, time.UTC)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("slots are in the provider time zone", func(t *testing.T) {
		loc, err := time.LoadLocation("Africa/Nairobi")
		require.NoError(t, err)
		slots, err := GenerateSlots("2025-06-01", "09:00", "10:00", 30, 30, loc)
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC), slots[0].UTC())
	})

	t.Run("skips wall-clock times lost to daylight saving", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		slots, err := GenerateSlots("2025-03-09", "01:00", "04:00", 30, 30, loc)
		require.NoError(t, err)

		assert.Equal(t, []string{"01:00", "01:30", "03:00", "03:30"}, labels(slots))
		for i := 1; i < len(slots); i++ {
			assert.True(t, slots[i].After(slots[i-1]), "slot %d not after slot %d", i, i-1)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := GenerateSlots("2025-06-01", "09:00", "17:00", 0, 60, time.UTC)
		assert.Error(t, err)
		_, err = GenerateSlots("2025-06-01", "9am", "17:00", 30, 60, time.UTC)
		assert.Error(t, err)
		_, err = GenerateSlots("01/06/2025", "09:00", "17:00", 30, 60, time.UTC)
		assert.Error(t, err)
		_, err = GenerateSlots("2025-06-01", "09:00", "24:30", 30, 60, time.UTC)
		assert.Error(t, err)
	})
}

func TestAnnotateAvailability(t *testing.T) {
	slots, err := GenerateSlots("2025-06-01", "09:00", "13:00", 30, 60, time.UTC)
	require.NoError(t, err)
	busy := []models.TimeInterval{{
		Start: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}}

	got := map[string]bool{}
	for _, s := range AnnotateAvailability(slots, busy, 60) {
		got[s.Label] = s.Available
	}

	assert.True(t, got["09:00"], "ends exactly when the booking starts")
	assert.False(t, got["09:30"], "overlaps the first half hour")
	assert.False(t, got["10:00"])
	assert.False(t, got["10:30"], "different label, still overlapping")
	assert.True(t, got["11:00"], "starts exactly when the booking ends")
	assert.True(t, got["12:00"])
}

func TestFirstConflict(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 6, 1, h, m, 0, 0, time.UTC) }
	busy := []models.TimeInterval{
		{Start: at(11, 0), End: at(12, 0)},
		{Start: at(9, 0), End: at(10, 0)},
	}

	c, ok := FirstConflict(models.TimeInterval{Start: at(9, 30), End: at(11, 30)}, busy)
	require.True(t, ok)
	assert.Equal(t, at(9, 0), c.Start)

	_, ok = FirstConflict(models.TimeInterval{Start: at(10, 0), End: at(11, 0)}, busy)
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.BookingPending, models.BookingConfirmed))
	assert.True(t, CanTransition(models.BookingPending, models.BookingCancelled))
	assert.True(t, CanTransition(models.BookingConfirmed, models.BookingCancelled))
	assert.True(t, CanTransition(models.BookingConfirmed, models.BookingCompleted))
	assert.False(t, CanTransition(models.BookingPending, models.BookingCompleted))
	assert.False(t, CanTransition(models.BookingCompleted, models.BookingConfirmed))
	assert.False(t, CanTransition(models.BookingCancelled, models.BookingCancelled))
}
