package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the textual form used for both BS and AD dates.
const DateLayout = "2006-01-02"

var (
	// ErrUnsupportedRange is returned when a date (or its equivalent) falls
	// outside the tabulated BS years.
	ErrUnsupportedRange = errors.New("date outside supported Bikram Sambat range")

	// ErrInvalidDate is returned for a BS month or day that does not exist.
	ErrInvalidDate = errors.New("invalid Bikram Sambat date")
)

// BSDate is a calendar date in the Bikram Sambat system.
type BSDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// String renders the date as YYYY-MM-DD.
func (d BSDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Validate checks the date against the month-length table.
func (d BSDate) Validate() error {
	n, err := DaysInMonth(d.Year, d.Month)
	if err != nil {
		return err
	}
	if d.Day < 1 || d.Day > n {
		return fmt.Errorf("%w: day %d not in 1..%d for %04d-%02d", ErrInvalidDate, d.Day, n, d.Year, d.Month)
	}
	return nil
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d BSDate) Compare(o BSDate) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// ParseBS parses a YYYY-MM-DD string into a validated BSDate.
// When the text is well formed but fails validation, the parsed date is
// returned together with the error.
func ParseBS(s string) (BSDate, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return BSDate{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return BSDate{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
		}
		nums[i] = n
	}

	d := BSDate{Year: nums[0], Month: nums[1], Day: nums[2]}
	return d, d.Validate()
}

// ParseAD parses a Gregorian YYYY-MM-DD string at midnight UTC.
// Nonexistent days such as February 29 in a common year are rejected.
func ParseAD(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
