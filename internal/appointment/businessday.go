package appointment

import "time"

// BusinessDaysBetween counts the Monday to Friday calendar days strictly
// between the dates of from and to. Holidays are not considered. The count
// is 0 when to is not after from.
func BusinessDaysBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}

	fy, fm, fd := from.Date()
	ty, tm, td := to.In(from.Location()).Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)

	n := 0
	for d := start.AddDate(0, 0, 1); d.Before(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			n++
		}
	}
	return n
}
