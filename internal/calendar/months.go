package calendar

import "time"

// NepaliMonths lists the BS month names in order, Baisakh first.
var NepaliMonths = [12]string{
	"Baisakh", "Jestha", "Ashadh", "Shrawan", "Bhadra", "Ashwin",
	"Kartik", "Mangsir", "Poush", "Magh", "Falgun", "Chaitra",
}

// EnglishMonths lists the Gregorian month names in order.
var EnglishMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the BS month name, or "" for a month outside 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return NepaliMonths[month-1]
}

// EnglishMonthName returns the Gregorian month name, or "" for a month outside 1..12.
func EnglishMonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return EnglishMonths[month-1]
}

// FirstOfYear returns BS year-01-01.
func FirstOfYear(year int) BSDate {
	return BSDate{Year: year, Month: 1, Day: 1}
}

// Fallback returns the first day of the supported year nearest to year.
// Callers use it when a conversion reports ErrUnsupportedRange.
func Fallback(year int) BSDate {
	switch {
	case year < MinYear:
		return FirstOfYear(MinYear)
	case year > MaxYear:
		return FirstOfYear(MaxYear)
	}
	return FirstOfYear(year)
}

// FallbackFor picks the nearest supported year for an AD date that could not be converted.
func FallbackFor(t time.Time) BSDate {
	y, m, d := t.Date()
	if ordinal(y, int(m), d) < epochOrdinal {
		return FirstOfYear(MinYear)
	}
	return FirstOfYear(MaxYear)
}

// MonthGrid returns the Gregorian date, at midnight UTC, of every day in a BS month.
func MonthGrid(year, month int) ([]time.Time, error) {
	n, err := DaysInMonth(year, month)
	if err != nil {
		return nil, err
	}
	first, err := ToAD(BSDate{Year: year, Month: month, Day: 1})
	if err != nil {
		return nil, err
	}

	days := make([]time.Time, n)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days, nil
}
