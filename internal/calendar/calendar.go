// Package calendar builds the month grid shown by the date picker.
package calendar

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Weekdays is the Sunday-first grid header.
var Weekdays = []string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// Day is one selectable cell of the grid.
type Day struct {
	Day        int    `json:"day"`
	Date       string `json:"date"` // YYYY-MM-DD
	IsToday    bool   `json:"isToday"`
	IsPast     bool   `json:"isPast"`
	IsSelected bool   `json:"isSelected"`
}

// Month is a rendered month. Cells starts with one nil per leading weekday
// offset, followed by one Day per day of the month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Cells []*Day     `json:"cells"`
}

// Build renders the month containing year/month. Flags are computed against
// now's calendar date in now's location.
func Build(year int, month time.Month, selected string, now time.Time) Month {
	loc := now.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// time.Date normalizes out-of-range months.
	year, month = first.Year(), first.Month()

	today := midnight(now)
	offset := int(first.Weekday())
	total := daysIn(month, year)

	cells := make([]*Day, 0, offset+total)
	for i := 0; i < offset; i++ {
		cells = append(cells, nil)
	}

	for d := 1; d <= total; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, loc)
		iso := date.Format(isoDate)
		cells = append(cells, &Day{
			Day:        d,
			Date:       iso,
			IsToday:    date.Equal(today),
			IsPast:     date.Before(today),
			IsSelected: selected != "" && iso == selected,
		})
	}

	return Month{Year: year, Month: month, Cells: cells}
}

// Prev returns the first day of the previous month.
func (m Month) Prev() (int, time.Month) {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return t.Year(), t.Month()
}

// Next returns the first day of the following month.
func (m Month) Next() (int, time.Month) {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return t.Year(), t.Month()
}

// Title is the Spanish month header, e.g. "Octubre 2026".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", monthNames[m.Month-1], m.Year)
}

// Weeks splits the cells into rows of seven, padding the last row with nil.
func (m Month) Weeks() [][]*Day {
	var rows [][]*Day
	for i := 0; i < len(m.Cells); i += 7 {
		row := make([]*Day, 7)
		copy(row, m.Cells[i:min(i+7, len(m.Cells))])
		rows = append(rows, row)
	}
	return rows
}

// Selectable reports whether date (YYYY-MM-DD) is today or later.
func Selectable(date string, now time.Time) bool {
	d, err := time.ParseInLocation(isoDate, date, now.Location())
	if err != nil {
		return false
	}
	return !d.Before(midnight(now))
}

// Today returns now's calendar date as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.Format(isoDate)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
