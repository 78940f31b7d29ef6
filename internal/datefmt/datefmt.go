// Package datefmt normalizes the date strings returned by the backend API
// into the YYYY-MM-DD form expected by HTML date inputs.
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

var layouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006",
	Layout,
}

// Normalize returns s formatted as YYYY-MM-DD, or "" when s is empty or in
// none of the accepted layouts.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(Layout)
		}
	}
	return ""
}

// NormalizeValue applies Normalize to a decoded JSON value. nil yields "".
func NormalizeValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return Normalize(value)
	case fmt.Stringer:
		return Normalize(value.String())
	default:
		return Normalize(fmt.Sprint(value))
	}
}

// Today formats t as YYYY-MM-DD.
func Today(t time.Time) string {
	return t.Format(Layout)
}
