package market

import (
	"testing"
	"time"
)

func TestNextAligned_PriceSlot(t *testing.T) {
	// Price slots land 90s past each 5-minute boundary: HH:MM:30, MM mod 5 == 1.
	cases := []struct {
		now  string
		want string
	}{
		{"2026/02/27 14:00:00", "2026/02/27 14:01:30"},
		{"2026/02/27 14:01:29", "2026/02/27 14:01:30"},
		{"2026/02/27 14:01:30", "2026/02/27 14:06:30"},
		{"2026/02/27 14:04:59", "2026/02/27 14:06:30"},
		{"2026/02/27 23:59:00", "2026/02/28 00:01:30"},
	}
	for _, tc := range cases {
		now, err := time.ParseInLocation(IntervalLayout, tc.now, AEST)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.now, err)
		}
		got := NextAligned(now, 5*time.Minute, 90*time.Second).In(AEST).Format(IntervalLayout)
		if got != tc.want {
			t.Errorf("NextAligned(%s) = %s, want %s", tc.now, got, tc.want)
		}
	}
}

func TestNextAligned_ForecastSlot(t *testing.T) {
	now, _ := time.ParseInLocation(IntervalLayout, "2026/02/27 14:31:31", AEST)
	got := NextAligned(now, 30*time.Minute, 90*time.Second).In(AEST).Format(IntervalLayout)
	if got != "2026/02/27 15:01:30" {
		t.Errorf("NextAligned 30min = %s, want 2026/02/27 15:01:30", got)
	}
}

func TestExpectedSettlement(t *testing.T) {
	now, _ := time.ParseInLocation(IntervalLayout, "2026/02/27 14:01:30", AEST)
	if got := ExpectedSettlement(now); got != "2026/02/27 14:00:00" {
		t.Errorf("ExpectedSettlement = %q, want 2026/02/27 14:00:00", got)
	}
}

func TestIntervalAgeMinutes(t *testing.T) {
	now, _ := time.ParseInLocation(IntervalLayout, "2026/02/27 14:12:00", AEST)
	if got := IntervalAgeMinutes("2026/02/27 14:00:00", now); got != 12 {
		t.Errorf("age = %d, want 12", got)
	}
	if got := IntervalAgeMinutes("2026/02/27 15:00:00", now); got != 0 {
		t.Errorf("future age = %d, want 0", got)
	}
	if got := IntervalAgeMinutes("garbage", now); got != -1 {
		t.Errorf("unparseable age = %d, want -1", got)
	}
}

func TestDisplay(t *testing.T) {
	if Display("NSW1") != "NSW" || Display("TAS1") != "TAS" {
		t.Error("known region display names wrong")
	}
	if Display("XX9") != "XX9" {
		t.Error("unknown region should pass through")
	}
	if !ValidRegion("SA1") || ValidRegion("SA2") {
		t.Error("ValidRegion wrong")
	}
}

func TestLexicographicOrderMatchesChronological(t *testing.T) {
	earlier := "2026/02/27 09:55:00"
	later := "2026/02/27 10:00:00"
	if !(earlier < later) {
		t.Error("interval strings must sort chronologically")
	}
}
