package presence

import (
	"testing"
	"time"
)

func TestOnlineWindow(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name       string
		lastActive time.Time
		want       bool
	}{
		{"just inside window", now.Add(-4*time.Minute - 59*time.Second), true},
		{"just outside window", now.Add(-5*time.Minute - time.Second), false},
		{"exactly at boundary", now.Add(-5 * time.Minute), false},
		{"active right now", now, true},
		{"never seen", time.Time{}, false},
	}

	for _, tc := range cases {
		if got := Online(tc.lastActive, now); got != tc.want {
			t.Fatalf("%s: Online = %v, want %v", tc.name, got, tc.want)
		}
	}
}
