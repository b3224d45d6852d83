package nbtime

import "time"

// Unit identifies a calendar alignment/step granularity.
type Unit int

const (
	UnitSecond Unit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitQuarter
	UnitYear
	UnitDecade
	UnitCentury
	UnitMillennium
)

// Align rounds t down to the most recent boundary of unit, in t's
// location.
func Align(t time.Time, unit Unit) time.Time {
	loc := t.Location()
	switch unit {
	case UnitSecond:
		return t.Truncate(time.Second)
	case UnitMinute:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	case UnitHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case UnitDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case UnitWeek:
		d := Align(t, UnitDay)
		// Align to Sunday, the calendar week start.
		offset := int(d.Weekday())
		return d.AddDate(0, 0, -offset)
	case UnitMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case UnitQuarter:
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, loc)
	case UnitYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case UnitDecade:
		return time.Date((t.Year()/10)*10, time.January, 1, 0, 0, 0, 0, loc)
	case UnitCentury:
		return time.Date((t.Year()/100)*100, time.January, 1, 0, 0, 0, 0, loc)
	case UnitMillennium:
		return time.Date((t.Year()/1000)*1000, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}

// Step advances t by n units, aligned first so stepping always
// operates from the unit's own boundary.
func Step(t time.Time, unit Unit, n int) time.Time {
	aligned := Align(t, unit)
	switch unit {
	case UnitSecond:
		return aligned.Add(time.Duration(n) * time.Second)
	case UnitMinute:
		return aligned.Add(time.Duration(n) * time.Minute)
	case UnitHour:
		return aligned.Add(time.Duration(n) * time.Hour)
	case UnitDay:
		return aligned.AddDate(0, 0, n)
	case UnitWeek:
		return aligned.AddDate(0, 0, 7*n)
	case UnitMonth:
		return aligned.AddDate(0, n, 0)
	case UnitQuarter:
		return aligned.AddDate(0, 3*n, 0)
	case UnitYear:
		return aligned.AddDate(n, 0, 0)
	case UnitDecade:
		return aligned.AddDate(10*n, 0, 0)
	case UnitCentury:
		return aligned.AddDate(100*n, 0, 0)
	case UnitMillennium:
		return aligned.AddDate(1000*n, 0, 0)
	default:
		return aligned
	}
}

// CastUnit produces the BFI of every aligned unit-length interval
// overlapping [begin, end) — the simple calendar function case (e.g.
// "day", "h", "w").
func CastUnit(unit Unit, begin, end time.Time) BFI {
	var out []Interval
	cursor := Align(begin, unit)
	for cursor.Before(end) {
		next := Step(cursor, unit, 1)
		out = append(out, Interval{Start: cursor, End: next})
		cursor = next
	}
	return BFI{Intervals: normalize(out)}
}

// Weekday produces the BFI of every day matching wd within [begin, end).
func Weekday(wd time.Weekday, begin, end time.Time) BFI {
	var out []Interval
	cursor := Align(begin, UnitDay)
	for cursor.Before(end) {
		if cursor.Weekday() == wd {
			out = append(out, Interval{Start: cursor, End: cursor.AddDate(0, 0, 1)})
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return BFI{Intervals: out}
}

// MonthName produces the BFI of every month matching m within [begin,
// end).
func MonthName(m time.Month, begin, end time.Time) BFI {
	var out []Interval
	cursor := Align(begin, UnitMonth)
	for cursor.Before(end) {
		if cursor.Month() == m {
			out = append(out, Interval{Start: cursor, End: cursor.AddDate(0, 1, 0)})
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return BFI{Intervals: out}
}

// HourRange produces the BFI of the daily [fromHour, toHour) window
// within [begin, end) — the complex function case, e.g. `h(8_17)`.
func HourRange(fromHour, toHour int, begin, end time.Time) BFI {
	var out []Interval
	cursor := Align(begin, UnitDay)
	for cursor.Before(end) {
		loc := cursor.Location()
		start := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), fromHour, 0, 0, 0, loc)
		stop := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), toHour, 0, 0, 0, loc)
		if start.Before(stop) {
			out = append(out, Interval{Start: start, End: stop})
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return BFI{Intervals: normalize(out)}
}

// DateRange produces the BFI of exactly the single interval
// [from, to) — the complex function case, e.g. `day(2014/06/03)`.
func DateRange(from, to time.Time) BFI {
	return Single(from, to)
}
