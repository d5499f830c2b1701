package mapper

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date-only form.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order. US month-first dates are deliberately
// absent: 03/04/2025 is read day-first.
var dateLayouts = []string{
	time.RFC3339Nano,
	DateLayout,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2.1.2006",
	"2/1/2006",
	"2006/1/2",
}

var numberRun = regexp.MustCompile(`-?[0-9][0-9.,]*`)

// Text returns a trimmed, non-empty string for a scalar value. Single
// element arrays unwrap; longer arrays join their text elements with ", ".
// Objects with a "name" attribute (collaborators, linked rows) yield the name.
func Text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case bool:
		return strconv.FormatBool(t), true
	case map[string]any:
		return Text(t["name"])
	case []string:
		return joinText(len(t), func(i int) any { return t[i] })
	case []any:
		return joinText(len(t), func(i int) any { return t[i] })
	}
	if n, ok := numeric(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

func joinText(n int, at func(int) any) (string, bool) {
	parts := make([]string, 0, n)
	for i := range n {
		if s, ok := Text(at(i)); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ", "), true
}

// Number returns a float for numeric values and numeric strings. Strings may
// carry thousands separators, a decimal comma, currency symbols or units.
// Arrays yield their first numeric element.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		return parseNumber(t)
	case []any:
		for _, e := range t {
			if n, ok := Number(e); ok {
				return n, true
			}
		}
		return 0, false
	case []string:
		for _, e := range t {
			if n, ok := parseNumber(e); ok {
				return n, true
			}
		}
		return 0, false
	}
	return numeric(v)
}

func numeric(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(s string) (float64, bool) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "'", "", "_", "").Replace(s)
	s = numberRun.FindString(s)
	if s == "" {
		return 0, false
	}
	s = strings.TrimRight(s, ".,")

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas > 0 && dots > 0:
		// The later separator is the decimal mark.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case commas == 1:
		if i := strings.Index(s, ","); len(s)-i-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Date normalizes a date-like value to YYYY-MM-DD, discarding the time of
// day in the value's own offset. Unparsable input reports false.
func Date(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.Format(DateLayout), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.Format(DateLayout), true
			}
		}
		return "", false
	case []any:
		if len(t) == 1 {
			return Date(t[0])
		}
	case []string:
		if len(t) == 1 {
			return Date(t[0])
		}
	}
	return "", false
}

// URLList normalizes a delimited string, a list of strings, or a list of
// attachment objects with a "url" attribute to an ordered, deduplicated list
// of http(s) URLs. Separators split strings in addition to whitespace.
func URLList(v any, separators string) ([]string, bool) {
	var out []string
	seen := map[string]bool{}
	collect(v, func(s string) {
		for _, part := range split(s, separators, true) {
			if isURL(part) && !seen[part] {
				seen[part] = true
				out = append(out, part)
			}
		}
	}, "url")
	return out, len(out) > 0
}

// List normalizes a delimited string or list to an ordered, deduplicated
// list of non-empty strings. Objects contribute their "name" attribute.
func List(v any, separators string) ([]string, bool) {
	var out []string
	seen := map[string]bool{}
	collect(v, func(s string) {
		for _, part := range split(s, separators, false) {
			if !seen[part] {
				seen[part] = true
				out = append(out, part)
			}
		}
	}, "name")
	return out, len(out) > 0
}

// collect walks nested lists and objects, passing every string to emit.
func collect(v any, emit func(string), objectKey string) {
	switch t := v.(type) {
	case string:
		emit(t)
	case []string:
		for _, s := range t {
			emit(s)
		}
	case []any:
		for _, e := range t {
			collect(e, emit, objectKey)
		}
	case map[string]any:
		collect(t[objectKey], emit, objectKey)
	}
}

func split(s, separators string, whitespace bool) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		if strings.ContainsRune(separators, r) {
			return true
		}
		if whitespace {
			return r == ' ' || r == '\t' || r == '\n' || r == '\r'
		}
		return r == '\n'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
