package appqueue_test

import (
	"testing"

	"github.com/Frankanator8/jobfinder/internal/appqueue"
)

func TestParseStatus(t *testing.T) {
	valid := []string{"PENDING", "PROCESSING", "COMPLETED", "FAILED"}
	for _, raw := range valid {
		s, err := appqueue.ParseStatus(raw)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned error: %v", raw, err)
		}
		if string(s) != raw {
			t.Errorf("ParseStatus(%q) = %q", raw, s)
		}
	}

	invalid := []string{"", "pending", "DONE", "Pending ", "CANCELLED"}
	for _, raw := range invalid {
		if _, err := appqueue.ParseStatus(raw); err == nil {
			t.Errorf("ParseStatus(%q) should have failed", raw)
		}
	}
}

func TestTransitionMatrix(t *testing.T) {
	all := []appqueue.Status{
		appqueue.StatusPending,
		appqueue.StatusProcessing,
		appqueue.StatusCompleted,
		appqueue.StatusFailed,
	}

	allowed := map[appqueue.Status][]appqueue.Status{
		appqueue.StatusPending:    {appqueue.StatusProcessing},
		appqueue.StatusProcessing: {appqueue.StatusCompleted, appqueue.StatusFailed},
		appqueue.StatusCompleted:  {},
		appqueue.StatusFailed:     {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			got := appqueue.IsTransitionAllowed(from, to)
			if got != want {
				t.Errorf("IsTransitionAllowed(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	cases := map[appqueue.Status]bool{
		appqueue.StatusPending:    false,
		appqueue.StatusProcessing: false,
		appqueue.StatusCompleted:  true,
		appqueue.StatusFailed:     true,
	}
	for s, want := range cases {
		if got := appqueue.IsTerminal(s); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, got, want)
		}
	}
}
