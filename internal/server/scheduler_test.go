package server

import (
	"testing"
	"time"
)

func TestIsDueNeverRun(t *testing.T) {
	t.Parallel()
	if !isDue("@daily", nil) {
		t.Fatal("recipient without history must be due")
	}
	if !isDue("0 9 * * *", nil) {
		t.Fatal("cron recipient without history must be due")
	}
}

func TestIsDueDaily(t *testing.T) {
	t.Parallel()
	recent := time.Now().Add(-1 * time.Hour)
	if isDue("@daily", &recent) {
		t.Fatal("daily recipient generated an hour ago is not due")
	}
	old := time.Now().Add(-25 * time.Hour)
	if !isDue("@daily", &old) {
		t.Fatal("daily recipient generated 25h ago is due")
	}
}

func TestIsDueHourly(t *testing.T) {
	t.Parallel()
	recent := time.Now().Add(-10 * time.Minute)
	if isDue("@hourly", &recent) {
		t.Fatal("hourly recipient generated 10m ago is not due")
	}
	old := time.Now().Add(-2 * time.Hour)
	if !isDue("@hourly", &old) {
		t.Fatal("hourly recipient generated 2h ago is due")
	}
}

func TestIsDueCronExpression(t *testing.T) {
	t.Parallel()
	old := time.Now().Add(-2 * time.Hour)
	if !isDue("0 * * * *", &old) {
		t.Fatal("hourly cron with 2h-old run is due")
	}
	now := time.Now()
	if isDue("0 * * * *", &now) {
		t.Fatal("hourly cron generated just now is not due")
	}
}

func TestIsDueInvalidSpecFallsBackToDaily(t *testing.T) {
	t.Parallel()
	recent := time.Now().Add(-1 * time.Hour)
	if isDue("not a cron", &recent) {
		t.Fatal("invalid spec with recent run must not be due")
	}
	old := time.Now().Add(-25 * time.Hour)
	if !isDue("not a cron", &old) {
		t.Fatal("invalid spec falls back to daily cadence")
	}
}
