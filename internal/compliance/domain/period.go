package domain

import (
	"fmt"
	"strings"
	"time"
)

type Granularity string

const (
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
)

// ParseGranularity accepts "monthly"/"quarterly" (and "month"/"quarter").
// An empty value means monthly.
func ParseGranularity(value string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "monthly", "month":
		return GranularityMonthly, nil
	case "quarterly", "quarter":
		return GranularityQuarterly, nil
	default:
		return "", ErrInvalidGranularity
	}
}

func (g Granularity) Valid() bool {
	return g == GranularityMonthly || g == GranularityQuarterly
}

// Period is the half-open window [Start, End) a snapshot covers.
type Period struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// NewPeriod normalises (year, month) to the start of its month or quarter.
func NewPeriod(year, month int, g Granularity) (Period, error) {
	if !g.Valid() {
		return Period{}, ErrInvalidGranularity
	}
	if month < 1 || month > 12 || year < 1 {
		return Period{}, ErrInvalidPeriod
	}

	if g == GranularityQuarterly {
		month = ((month-1)/3)*3 + 1
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	if g == GranularityQuarterly {
		end = start.AddDate(0, 3, 0)
	}
	return Period{Start: start, End: end, Granularity: g}, nil
}

// PeriodFor returns the period of granularity g containing t.
func PeriodFor(t time.Time, g Granularity) (Period, error) {
	t = t.UTC()
	return NewPeriod(t.Year(), int(t.Month()), g)
}

func (p Period) Year() int { return p.Start.Year() }

func (p Period) Month() int { return int(p.Start.Month()) }

func (p Period) Quarter() int { return (p.Month()-1)/3 + 1 }

// Label renders "10/2026" for monthly and "Q4/2026" for quarterly periods.
func (p Period) Label() string {
	if p.Granularity == GranularityQuarterly {
		return fmt.Sprintf("Q%d/%d", p.Quarter(), p.Year())
	}
	return fmt.Sprintf("%02d/%d", p.Month(), p.Year())
}

// Key identifies the period for obligation deduplication,
// e.g. "monthly:2026-10" or "quarterly:2026-Q4".
func (p Period) Key() string {
	if p.Granularity == GranularityQuarterly {
		return fmt.Sprintf("quarterly:%d-Q%d", p.Year(), p.Quarter())
	}
	return fmt.Sprintf("monthly:%d-%02d", p.Year(), p.Month())
}

func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && t.Before(p.End)
}
