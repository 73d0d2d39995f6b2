// Package report turns the transaction ledger into time-bucketed totals,
// category breakdowns, income-vs-expense series and budget status.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/ledger/internal/common"
	"github.com/Veraticus/ledger/internal/model"
)

// Grouping is the size of a time bucket.
type Grouping string

// Supported groupings.
const (
	GroupDay   Grouping = "day"
	GroupWeek  Grouping = "week"
	GroupMonth Grouping = "month"
	GroupYear  Grouping = "year"
)

// Errors returned for malformed report parameters.
var (
	ErrInvalidGrouping = fmt.Errorf("%w: grouping must be day, week, month or year", common.ErrValidation)
	ErrInvalidPreset   = fmt.Errorf("%w: unknown date range preset", common.ErrValidation)
	ErrInvalidType     = fmt.Errorf("%w: type must be income, expense or transfer", common.ErrValidation)
	ErrInvalidMonth    = fmt.Errorf("%w: month must be between 1 and 12", common.ErrValidation)
	ErrInvalidRange    = fmt.Errorf("%w: start date must not be after end date", common.ErrValidation)
)

// ParseGrouping converts user input into a Grouping.
func ParseGrouping(s string) (Grouping, error) {
	g := Grouping(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrouping, s)
	}
	return g, nil
}

// Valid reports whether g is a supported grouping.
func (g Grouping) Valid() bool {
	switch g {
	case GroupDay, GroupWeek, GroupMonth, GroupYear:
		return true
	}
	return false
}

// Bucket identifies one time bucket. Buckets order by Start, never by Label.
type Bucket struct {
	Start time.Time
	Label string
	// Year is the ISO week-year for week buckets and the calendar year otherwise.
	Year int
	// Number is the ISO week, the month, or the day of year. Zero for year buckets.
	Number int
}

// BucketOf returns the bucket that contains date.
func (g Grouping) BucketOf(date time.Time) Bucket {
	d := model.Day(date)
	switch g {
	case GroupWeek:
		year, week := d.ISOWeek()
		// ISO weeks start on Monday.
		offset := (int(d.Weekday()) + 6) % 7
		return Bucket{
			Start:  d.AddDate(0, 0, -offset),
			Label:  fmt.Sprintf("%04d-W%02d", year, week),
			Year:   year,
			Number: week,
		}
	case GroupMonth:
		return Bucket{
			Start:  model.Date(d.Year(), d.Month(), 1),
			Label:  d.Format("2006-01"),
			Year:   d.Year(),
			Number: int(d.Month()),
		}
	case GroupYear:
		return Bucket{
			Start: model.Date(d.Year(), time.January, 1),
			Label: d.Format("2006"),
			Year:  d.Year(),
		}
	default:
		return Bucket{
			Start:  d,
			Label:  d.Format(model.DateLayout),
			Year:   d.Year(),
			Number: d.YearDay(),
		}
	}
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both ends to calendar dates and rejects reversed ranges.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: model.Day(start), End: model.Day(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	return r, nil
}

// Contains reports whether date falls inside the range.
func (r DateRange) Contains(date time.Time) bool {
	d := model.Day(date)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days in the range.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(model.DateLayout) + " to " + r.End.Format(model.DateLayout)
}

// LastDays returns the range from n days before today through today.
func LastDays(today time.Time, n int) DateRange {
	end := model.Day(today)
	return DateRange{Start: end.AddDate(0, 0, -n), End: end}
}

// MonthRange returns the first through last day of a calendar month.
// The last day is the day before the first of the next month.
func MonthRange(month, year int) (DateRange, error) {
	if month < 1 || month > 12 {
		return DateRange{}, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	first := model.Date(year, time.Month(month), 1)
	return DateRange{Start: first, End: first.AddDate(0, 1, 0).AddDate(0, 0, -1)}, nil
}

// Preset names a commonly used date range.
type Preset string

// Supported presets.
const (
	PresetLast7Days   Preset = "last-7-days"
	PresetLast30Days  Preset = "last-30-days"
	PresetThisMonth   Preset = "this-month"
	PresetLastMonth   Preset = "last-month"
	PresetLast3Months Preset = "last-3-months"
	PresetLast6Months Preset = "last-6-months"
	PresetThisYear    Preset = "this-year"
	PresetLastYear    Preset = "last-year"
	PresetAllTime     Preset = "all-time"
)

// Presets lists every preset in display order.
var Presets = []Preset{
	PresetLast7Days,
	PresetLast30Days,
	PresetThisMonth,
	PresetLastMonth,
	PresetLast3Months,
	PresetLast6Months,
	PresetThisYear,
	PresetLastYear,
	PresetAllTime,
}

// allTimeStart is the earliest date covered by the all-time preset.
var allTimeStart = model.Date(1900, time.January, 1)

// ParsePreset converts user input into a Preset.
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Presets {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPreset, s)
}

// Next returns the preset after p in display order, wrapping around.
func (p Preset) Next() Preset {
	for i, known := range Presets {
		if known == p {
			return Presets[(i+1)%len(Presets)]
		}
	}
	return Presets[0]
}

// Range resolves the preset relative to today.
func (p Preset) Range(today time.Time) DateRange {
	t := model.Day(today)
	firstOfMonth := model.Date(t.Year(), t.Month(), 1)

	switch p {
	case PresetLast7Days:
		return LastDays(t, 7)
	case PresetThisMonth:
		return DateRange{Start: firstOfMonth, End: t}
	case PresetLastMonth:
		start := firstOfMonth.AddDate(0, -1, 0)
		return DateRange{Start: start, End: firstOfMonth.AddDate(0, 0, -1)}
	case PresetLast3Months:
		return DateRange{Start: t.AddDate(0, -3, 0), End: t}
	case PresetLast6Months:
		return DateRange{Start: t.AddDate(0, -6, 0), End: t}
	case PresetThisYear:
		return DateRange{Start: model.Date(t.Year(), time.January, 1), End: t}
	case PresetLastYear:
		return DateRange{
			Start: model.Date(t.Year()-1, time.January, 1),
			End:   model.Date(t.Year()-1, time.December, 31),
		}
	case PresetAllTime:
		return DateRange{Start: allTimeStart, End: t}
	default:
		return LastDays(t, 30)
	}
}
