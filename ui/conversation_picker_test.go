package ui

import (
	"testing"
	"time"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds ago", now.Add(-20 * time.Second), "just now"},
		{"minutes ago", now.Add(-5*time.Minute - 2*time.Second), "5m ago"},
		{"hours ago", now.Add(-3*time.Hour - time.Minute), "3h ago"},
		{"days ago", now.Add(-49 * time.Hour), "2d ago"},
		{"weeks ago", now.Add(-10 * 24 * time.Hour), "1w ago"},
		{"months ago", now.Add(-65 * 24 * time.Hour), "2mo ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimeAgo(tt.t); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
