package calendar

import "time"

// GridCells is the fixed number of cells in a month view: six Sunday-first weeks.
const GridCells = 42

// Day is a single cell of a month grid.
type Day struct {
	Date           Date
	DayOfMonth     int
	IsCurrentMonth bool
}

// MonthGrid lays out the requested month on a 6x7 grid starting on Sunday.
// Leading cells come from the previous month and trailing cells from the next
// one; each carries the day number of its own month.
func MonthGrid(year int, month time.Month) []Day {
	first := New(year, month, 1)
	leading := int(first.Weekday())
	start := first.AddDays(-leading)

	days := make([]Day, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		d := start.AddDays(i)
		days = append(days, Day{
			Date:           d,
			DayOfMonth:     d.Day(),
			IsCurrentMonth: d.Year() == first.Year() && d.Month() == first.Month(),
		})
	}
	return days
}
