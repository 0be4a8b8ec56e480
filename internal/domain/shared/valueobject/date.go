package valueobject

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout is the canonical wire and storage form of a Date
const DateLayout = "2006-01-02"

// Date is a value object representing a civil calendar date with day
// precision. It carries no time-of-day or zone information: two records
// entered in different time zones on the same calendar day fall into
// the same daily bucket.
type Date struct {
	t time.Time
}

// NewDate creates a Date from year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a date in the canonical "2006-01-02" form
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// Today returns the current calendar date
func Today() Date {
	return DateOf(time.Now())
}

// IsZero returns true for the zero Date
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the date as a time.Time at midnight UTC
func (d Date) Time() time.Time {
	return d.t
}

// Year returns the calendar year
func (d Date) Year() int {
	return d.t.Year()
}

// Month returns the calendar month
func (d Date) Month() time.Month {
	return d.t.Month()
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.t.Day()
}

// Before reports whether d is before other
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is after other
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether d and other are the same calendar date
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// AddDays returns the date n days after d (n may be negative)
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths returns the date n months after d, normalized by time.AddDate
func (d Date) AddMonths(n int) Date {
	return Date{t: d.t.AddDate(0, n, 0)}
}

// StartOfMonth returns the first day of d's month
func (d Date) StartOfMonth() Date {
	return NewDate(d.t.Year(), d.t.Month(), 1)
}

// String returns the canonical "2006-01-02" form
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

// DateRange is an optional inclusive date interval. A nil bound leaves
// that side of the range open.
type DateRange struct {
	From *Date
	To   *Date
}

// NewDateRange creates a range with the given bounds. A nil bound
// leaves that side open.
func NewDateRange(from, to *Date) DateRange {
	return DateRange{From: from, To: to}
}

// Contains reports whether the date falls within the range (inclusive)
func (r DateRange) Contains(d Date) bool {
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}

// IsOpen reports whether the range has no bounds at all
func (r DateRange) IsOpen() bool {
	return r.From == nil && r.To == nil
}
