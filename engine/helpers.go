package engine

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/eringen/pagesmith/markdown"
)

// Helpers maps the name a template calls a helper by to its implementation.
// Values must be functions html/template can call: one result, or a result
// and an error.
type Helpers map[string]any

// DefaultHelpers returns the helper set every site gets.
func DefaultHelpers() Helpers {
	return Helpers{
		"format_us_date": FormatUSDate,
		"shuffle":        Shuffle,
		"date_range":     FormatDateRange,
		"unique":         Unique,
		"markdown":       markdown.HTML,
	}
}

// With returns a copy of h with extra merged in; extra wins on name clashes.
func (h Helpers) With(extra Helpers) Helpers {
	out := make(Helpers, len(h)+len(extra))
	for k, v := range h {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

const (
	layoutDay   = "1/2/2006"
	layoutMonth = "1/2006"

	labelDay   = "Jan 2, 2006"
	labelMonth = "Jan 2006"

	// monthEndOffset moves the 1st of a month to a day that is still inside
	// the same month, so month-precision ends count the whole month.
	monthEndOffset = 27 * 24 * time.Hour

	rangeSeparator = " · "
	presentLabel   = "Present"
)

// FormatUSDate renders a month/day/year string as "Jan 2, 2006". Anything
// that does not parse, including non-strings, is returned unchanged.
func FormatUSDate(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	t, err := time.Parse(layoutDay, strings.TrimSpace(s))
	if err != nil {
		return v
	}
	return t.Format(labelDay)
}

// Shuffle returns a new slice holding the elements of v in random order.
// v is not modified. Values that are not slices or arrays are returned as is.
func Shuffle(v any) any {
	rv := reflect.ValueOf(v)
	if !isSequence(rv) {
		return v
	}
	out := copySequence(rv)
	rand.Shuffle(out.Len(), reflect.Swapper(out.Interface()))
	return out.Interface()
}

// Unique returns a new slice with duplicate elements of v removed, keeping
// the first occurrence of each. Values that are not slices or arrays are
// returned as is.
func Unique(v any) any {
	rv := reflect.ValueOf(v)
	if !isSequence(rv) {
		return v
	}
	out := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), 0, rv.Len())
	seen := make(map[any]struct{}, rv.Len())
	var kept []any
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i)
		elem := item.Interface()
		if ev := reflect.ValueOf(elem); ev.IsValid() && ev.Comparable() {
			if _, dup := seen[elem]; dup {
				continue
			}
			seen[elem] = struct{}{}
		} else {
			if containsDeep(kept, elem) {
				continue
			}
			kept = append(kept, elem)
		}
		out = reflect.Append(out, item)
	}
	return out.Interface()
}

func containsDeep(items []any, v any) bool {
	for _, item := range items {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

func isSequence(rv reflect.Value) bool {
	return rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array)
}

func copySequence(rv reflect.Value) reflect.Value {
	out := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out
}

// FormatDateRange renders "Feb 2024 - Jun 2025 · 1 yr 4 mos". start and end
// are MM/YYYY or MM/DD/YYYY; a missing or empty end means the range is
// ongoing and is labelled "Present".
func FormatDateRange(start any, end ...any) (string, error) {
	var e any
	if len(end) > 0 {
		e = end[0]
	}
	return formatDateRangeAt(time.Now(), start, e)
}

type parsedDate struct {
	t          time.Time
	monthsOnly bool
}

func (d parsedDate) label() string {
	if d.monthsOnly {
		return d.t.Format(labelMonth)
	}
	return d.t.Format(labelDay)
}

func parseRangeDate(v any) (parsedDate, error) {
	s := strings.TrimSpace(fmt.Sprint(v))
	if t, err := time.Parse(layoutDay, s); err == nil {
		return parsedDate{t: t}, nil
	}
	if t, err := time.Parse(layoutMonth, s); err == nil {
		return parsedDate{t: t, monthsOnly: true}, nil
	}
	return parsedDate{}, newDateParseError(s)
}

func formatDateRangeAt(now time.Time, start, end any) (string, error) {
	from, err := parseRangeDate(start)
	if err != nil {
		return "", err
	}

	var (
		to      time.Time
		toLabel string
		inMonth = from.monthsOnly
	)
	if end == nil || strings.TrimSpace(fmt.Sprint(end)) == "" {
		to = now
		toLabel = presentLabel
	} else {
		d, err := parseRangeDate(end)
		if err != nil {
			return "", err
		}
		to = d.t
		toLabel = d.label()
		if d.monthsOnly {
			to = to.Add(monthEndOffset)
			inMonth = true
		}
	}

	months := monthsBetween(from.t, to)
	if inMonth && months < 1 {
		months = 1
	}
	return from.label() + " - " + toLabel + rangeSeparator + formatDuration(months), nil
}

func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func formatDuration(months int) string {
	years, rest := months/12, months%12
	var parts []string
	if years > 0 {
		parts = append(parts, plural(years, "yr", "yrs"))
	}
	if rest > 0 {
		parts = append(parts, plural(rest, "mo", "mos"))
	}
	if len(parts) == 0 {
		return "0 mos"
	}
	return strings.Join(parts, " ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
