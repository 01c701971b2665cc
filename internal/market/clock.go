package market

import "time"

// AEST is the NEM's civil time zone. The market runs on UTC+10 year-round
// with no daylight saving, so a fixed zone is exact.
var AEST = time.FixedZone("AEST", 10*60*60)

// AEMO interval timestamps are fixed-width zero-padded, so lexicographic
// ordering of these strings matches chronological ordering.
const (
	IntervalLayout = "2006/01/02 15:04:05"
	DateLayout     = "2006/01/02"
)

// NowAEST returns the current market-local time.
func NowAEST() time.Time {
	return time.Now().In(AEST)
}

// TodayPrefix returns today's market-local date in interval-prefix form.
func TodayPrefix() string {
	return NowAEST().Format(DateLayout)
}

// NextAligned returns the first instant strictly after now that sits
// offset past a multiple-of-period boundary. Periods divide a whole hour
// and AEST is a whole-hour zone, so truncation in absolute time lands on
// the same boundaries as market wall-clock time.
func NextAligned(now time.Time, period, offset time.Duration) time.Time {
	t := now.Truncate(period).Add(offset)
	for !t.After(now) {
		t = t.Add(period)
	}
	return t
}

// LastBoundary returns the most recent multiple-of-period boundary at or
// before now, in AEST.
func LastBoundary(now time.Time, period time.Duration) time.Time {
	return now.Truncate(period).In(AEST)
}

// ExpectedSettlement returns the interval_time string AEMO stamps on the
// record for the most recently ended dispatch interval.
func ExpectedSettlement(now time.Time) string {
	return LastBoundary(now, 5*time.Minute).Format(IntervalLayout)
}

// IntervalAgeMinutes returns how many minutes ago an interval_time was,
// or -1 if the string does not parse.
func IntervalAgeMinutes(intervalTime string, now time.Time) int64 {
	t, err := time.ParseInLocation(IntervalLayout, intervalTime, AEST)
	if err != nil {
		return -1
	}
	mins := int64(now.In(AEST).Sub(t).Minutes())
	if mins < 0 {
		return 0
	}
	return mins
}
