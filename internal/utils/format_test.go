package utils

import (
	"testing"
	"time"
)

func TestDashIfEmpty(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "—"},
		{"   ", "—"},
		{"nat-0abc", "nat-0abc"},
	}

	for _, tt := range tests {
		if got := DashIfEmpty(tt.in); got != tt.want {
			t.Errorf("DashIfEmpty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestElapsed(t *testing.T) {
	now := time.Date(2026, 3, 15, 8, 45, 30, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		want  string
	}{
		{"zero start", time.Time{}, "—"},
		{"seconds", now.Add(-30 * time.Second), "30 seconds"},
		{"minutes", now.Add(-3 * time.Minute), "3 minutes"},
		{"one minute", now.Add(-time.Minute), "1 minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Elapsed(tt.start, now); got != tt.want {
				t.Errorf("Elapsed = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "route"); got != "1 route" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := Plural(0, "route"); got != "0 routes" {
		t.Errorf("Plural(0) = %q", got)
	}
	if got := Plural(3, "instance"); got != "3 instances" {
		t.Errorf("Plural(3) = %q", got)
	}
}

func TestJoinOrDash(t *testing.T) {
	if got := JoinOrDash(nil); got != "—" {
		t.Errorf("JoinOrDash(nil) = %q", got)
	}
	if got := JoinOrDash([]string{"i-1", "i-2"}); got != "i-1, i-2" {
		t.Errorf("JoinOrDash = %q", got)
	}
}
