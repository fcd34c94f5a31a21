package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const Dash = "—"

// DashIfEmpty returns s, or "—" when s is blank.
func DashIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return Dash
	}
	return s
}

// Elapsed describes how long ago start was relative to now, e.g. "2 minutes".
func Elapsed(start, now time.Time) string {
	if start.IsZero() {
		return Dash
	}
	return strings.TrimSpace(humanize.RelTime(start, now, "", ""))
}

// Plural formats n with word, adding an "s" unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// JoinOrDash joins ids with ", ", or returns "—" for none.
func JoinOrDash(ids []string) string {
	if len(ids) == 0 {
		return Dash
	}
	return strings.Join(ids, ", ")
}
