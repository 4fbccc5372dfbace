package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

const DateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day, held as UTC midnight so values
// compare with == and work as map keys.
type Date struct{ t time.Time }

func NewDate(y int, m time.Month, d int) Date {
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping t's calendar day in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, validationf("malformed date %q, want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// DaysInclusive counts calendar days in [start, end]. It is <= 0 when start > end.
func DaysInclusive(start, end Date) int {
	return int(end.t.Sub(start.t)/(24*time.Hour)) + 1
}

// CheckRange validates an inclusive date range. maxDays <= 0 disables the size bound.
func CheckRange(start, end Date, maxDays int) error {
	if start.IsZero() || end.IsZero() {
		return validationf("start and end dates are required")
	}
	if start.After(end) {
		return rangef("start %s is after end %s", start, end)
	}
	if n := DaysInclusive(start, end); maxDays > 0 && n > maxDays {
		return rangef("range %s..%s spans %d days, max %d", start, end, n, maxDays)
	}
	return nil
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	p, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return validationf("date must be a string")
	}
	return d.UnmarshalText([]byte(s))
}

// Value stores the date as a DATE column.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.UnmarshalText(v)
	case string:
		return d.UnmarshalText([]byte(v))
	default:
		return errors.Newf("cannot scan %T into Date", src)
	}
}
