package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysInclusive(t *testing.T) {
	assert.Equal(t, 1, DaysInclusive(date(2026, 1, 1), date(2026, 1, 1)))
	assert.Equal(t, 31, DaysInclusive(date(2026, 1, 1), date(2026, 1, 31)))
	assert.Equal(t, 0, DaysInclusive(date(2026, 1, 2), date(2026, 1, 1)))

	// Time-of-day never affects the day count.
	lateStart := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)
	earlyEnd := time.Date(2026, 1, 3, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysInclusive(lateStart, earlyEnd))
}

func TestOverlapDays(t *testing.T) {
	t.Run("partial overlap", func(t *testing.T) {
		days, start, end := OverlapDays(
			date(2026, 1, 21), date(2026, 2, 19),
			date(2026, 1, 1), date(2026, 1, 30))
		assert.Equal(t, 10, days)
		assert.Equal(t, date(2026, 1, 21), start)
		assert.Equal(t, date(2026, 1, 30), end)
	})

	t.Run("contained range", func(t *testing.T) {
		days, start, end := OverlapDays(
			date(2026, 1, 1), date(2026, 1, 31),
			date(2026, 1, 10), date(2026, 1, 19))
		assert.Equal(t, 10, days)
		assert.Equal(t, date(2026, 1, 10), start)
		assert.Equal(t, date(2026, 1, 19), end)
	})

	t.Run("single shared day", func(t *testing.T) {
		days, _, _ := OverlapDays(
			date(2026, 1, 1), date(2026, 1, 31),
			date(2026, 1, 31), date(2026, 2, 28))
		assert.Equal(t, 1, days)
	})

	t.Run("no overlap", func(t *testing.T) {
		days, _, _ := OverlapDays(
			date(2026, 1, 1), date(2026, 1, 31),
			date(2026, 2, 1), date(2026, 2, 28))
		assert.Equal(t, 0, days)
	})
}
