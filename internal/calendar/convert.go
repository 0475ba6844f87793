// Package calendar converts dates between the Gregorian (AD) and Bikram Sambat (BS)
// calendars.
//
// Conversion counts days from a fixed epoch (BS 2000-01-01 = AD 1943-04-14) and walks
// the month-length table. All arithmetic is on whole days; no durations or floats
// are involved, so results do not depend on time zones or DST.
//
// The package holds no mutable state and is safe for concurrent use.
package calendar

import "time"

// Epoch anchor on the Gregorian side. BS MinYear-01-01 falls on this day.
const (
	epochYear  = 1943
	epochMonth = 4
	epochDay   = 14
)

var epochOrdinal = ordinal(epochYear, epochMonth, epochDay)

// ToBS converts the date portion of t, read in t's own location, to BS.
// It returns ErrUnsupportedRange when the result would fall outside the table.
func ToBS(t time.Time) (BSDate, error) {
	y, m, d := t.Date()
	offset := ordinal(y, int(m), d) - epochOrdinal

	year, month := MinYear, 1

	// Restore whole months while before the anchor.
	for offset < 0 {
		month--
		if month < 1 {
			month = 12
			year--
		}
		if !IsSupported(year) {
			return BSDate{}, ErrUnsupportedRange
		}
		offset += monthDays[year-MinYear][month-1]
	}

	// Consume whole months until the remainder fits.
	for {
		n := monthDays[year-MinYear][month-1]
		if offset < n {
			return BSDate{Year: year, Month: month, Day: offset + 1}, nil
		}
		offset -= n
		month++
		if month > 12 {
			month = 1
			year++
			if !IsSupported(year) {
				return BSDate{}, ErrUnsupportedRange
			}
		}
	}
}

// ToAD converts a BS date to the Gregorian date at midnight UTC.
func ToAD(d BSDate) (time.Time, error) {
	return ToADIn(d, time.UTC)
}

// ToADIn is like ToAD but returns midnight in loc. A nil loc means UTC.
func ToADIn(d BSDate, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if err := d.Validate(); err != nil {
		return time.Time{}, err
	}

	offset := 0
	for y := MinYear; y < d.Year; y++ {
		n, _ := DaysInYear(y)
		offset += n
	}
	for m := 1; m < d.Month; m++ {
		offset += monthDays[d.Year-MinYear][m-1]
	}
	offset += d.Day - 1

	y, m, day := fromOrdinal(epochOrdinal + offset)
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, loc), nil
}

// IsGregorianLeap reports whether year is a Gregorian leap year.
func IsGregorianLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInGregorianMonth(year, month int) int {
	switch month {
	case 2:
		if IsGregorianLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}

// daysBeforeYear counts the days from 0001-01-01 up to January 1st of year.
func daysBeforeYear(year int) int {
	y := year - 1
	return 365*y + y/4 - y/100 + y/400
}

// ordinal numbers days so that 0001-01-01 is day 1.
func ordinal(year, month, day int) int {
	n := daysBeforeYear(year)
	for m := 1; m < month; m++ {
		n += daysInGregorianMonth(year, m)
	}
	return n + day
}

func fromOrdinal(n int) (year, month, day int) {
	year = n*400/146097 + 1
	for daysBeforeYear(year) >= n {
		year--
	}
	for daysBeforeYear(year+1) < n {
		year++
	}

	day = n - daysBeforeYear(year)
	month = 1
	for day > daysInGregorianMonth(year, month) {
		day -= daysInGregorianMonth(year, month)
		month++
	}
	return year, month, day
}
