package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/condominio/backend/internal/domain/shared"
)

// periodPattern matches the canonical YYYY-MM form
var periodPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Period is a value object representing a billing period (a calendar month).
// It is immutable and its canonical string form is "YYYY-MM".
type Period struct {
	year  int
	month time.Month
}

// NewPeriod creates a Period from a year and month
func NewPeriod(year int, month time.Month) (Period, error) {
	if year < 2000 || year > 2100 {
		return Period{}, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Period year out of range: %d", year))
	}
	if month < time.January || month > time.December {
		return Period{}, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid period month: %d", month))
	}
	return Period{year: year, month: month}, nil
}

// ParsePeriod parses a Period from its canonical "YYYY-MM" form
func ParsePeriod(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Invalid period %q, expected YYYY-MM", s))
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return NewPeriod(year, time.Month(month))
}

// PeriodOf returns the period containing the given time
func PeriodOf(t time.Time) Period {
	return Period{year: t.Year(), month: t.Month()}
}

// CurrentPeriod returns the period containing the current time
func CurrentPeriod() Period {
	return PeriodOf(time.Now())
}

// Year returns the period's year
func (p Period) Year() int {
	return p.year
}

// Month returns the period's month
func (p Period) Month() time.Month {
	return p.month
}

// IsZero reports whether the period is the zero value
func (p Period) IsZero() bool {
	return p.year == 0 && p.month == 0
}

// String returns the canonical "YYYY-MM" form
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// Equal reports whether two periods are the same month
func (p Period) Equal(other Period) bool {
	return p.year == other.year && p.month == other.month
}

// Before reports whether p is chronologically before other
func (p Period) Before(other Period) bool {
	if p.year != other.year {
		return p.year < other.year
	}
	return p.month < other.month
}

// After reports whether p is chronologically after other
func (p Period) After(other Period) bool {
	return other.Before(p)
}

// Compare returns -1, 0 or 1 comparing p to other chronologically
func (p Period) Compare(other Period) int {
	switch {
	case p.Before(other):
		return -1
	case p.After(other):
		return 1
	default:
		return 0
	}
}

// Next returns the following month's period
func (p Period) Next() Period {
	if p.month == time.December {
		return Period{year: p.year + 1, month: time.January}
	}
	return Period{year: p.year, month: p.month + 1}
}

// Previous returns the preceding month's period
func (p Period) Previous() Period {
	if p.month == time.January {
		return Period{year: p.year - 1, month: time.December}
	}
	return Period{year: p.year, month: p.month - 1}
}

// FirstDay returns midnight UTC on the first day of the period
func (p Period) FirstDay() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC on the last day of the period
func (p Period) LastDay() time.Time {
	return p.Next().FirstDay().AddDate(0, 0, -1)
}

// MarshalJSON implements json.Marshaler
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (p Period) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (p *Period) Scan(value interface{}) error {
	if value == nil {
		*p = Period{}
		return nil
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return errors.New("unsupported type for Period")
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
