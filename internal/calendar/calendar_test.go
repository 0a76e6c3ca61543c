package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadingBlanks(cells []*Day) int {
	n := 0
	for _, c := range cells {
		if c != nil {
			break
		}
		n++
	}
	return n
}

func TestBuild_February2024(t *testing.T) {
	now := time.Date(2024, time.February, 10, 15, 0, 0, 0, time.UTC)
	m := Build(2024, time.February, "2024-02-14", now)

	first := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int(first.Weekday()), leadingBlanks(m.Cells))
	assert.Len(t, m.Cells, leadingBlanks(m.Cells)+29)

	last := m.Cells[len(m.Cells)-1]
	require.NotNil(t, last)
	assert.Equal(t, 29, last.Day)
	assert.Equal(t, "2024-02-29", last.Date)
	assert.Equal(t, "Febrero 2024", m.Title())
}

func TestBuild_Flags(t *testing.T) {
	now := time.Date(2026, time.October, 15, 23, 59, 0, 0, time.UTC)
	m := Build(2026, time.October, "2026-10-20", now)

	byDate := map[string]*Day{}
	for _, c := range m.Cells {
		if c != nil {
			byDate[c.Date] = c
		}
	}

	today := byDate["2026-10-15"]
	assert.True(t, today.IsToday)
	assert.False(t, today.IsPast)

	yesterday := byDate["2026-10-14"]
	assert.True(t, yesterday.IsPast)
	assert.False(t, yesterday.IsToday)

	assert.True(t, byDate["2026-10-20"].IsSelected)
	assert.False(t, byDate["2026-10-21"].IsSelected)
	assert.False(t, byDate["2026-10-21"].IsPast)
}

func TestMonth_Navigation(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		prevYear  int
		prevMonth time.Month
		nextYear  int
		nextMonth time.Month
	}{
		{"january wraps back", 2026, time.January, 2025, time.December, 2026, time.February},
		{"december wraps forward", 2026, time.December, 2026, time.November, 2027, time.January},
		{"long month does not skip february", 2026, time.March, 2026, time.February, 2026, time.April},
	}

	now := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Build(tt.year, tt.month, "", now)
			y, mo := m.Prev()
			assert.Equal(t, tt.prevYear, y)
			assert.Equal(t, tt.prevMonth, mo)
			y, mo = m.Next()
			assert.Equal(t, tt.nextYear, y)
			assert.Equal(t, tt.nextMonth, mo)
		})
	}
}

func TestMonth_Weeks(t *testing.T) {
	now := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	m := Build(2026, time.October, "", now)
	weeks := m.Weeks()
	require.NotEmpty(t, weeks)
	for _, w := range weeks {
		assert.Len(t, w, 7)
	}
	// October 2026 starts on a Thursday.
	assert.Nil(t, weeks[0][3])
	assert.Equal(t, 1, weeks[0][4].Day)
}

func TestSelectable(t *testing.T) {
	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	assert.True(t, Selectable("2026-10-15", now))
	assert.True(t, Selectable("2026-12-01", now))
	assert.False(t, Selectable("2026-10-14", now))
	assert.False(t, Selectable("15/10/2026", now))
	assert.Equal(t, "2026-10-15", Today(now))
}
