package utils

import (
	"fmt"
	"sync"
	"time"
)

// Reporter counts events and renders their throughput. The format receives the
// count since the last report, the elapsed seconds and the rate per second.
type Reporter struct {
	mu sync.Mutex

	reportCountThreshold int
	reportInterval       time.Duration
	reportFormat         string
	count                int
	startTime            time.Time

	lastReportTime  time.Time
	lastReportCount int
}

func NewReporter(reportCountThreshold int, reportInterval time.Duration, reportFormat string) *Reporter {
	return &Reporter{
		reportCountThreshold: reportCountThreshold,
		reportInterval:       reportInterval,
		reportFormat:         reportFormat,
		startTime:            time.Now(),
		lastReportTime:       time.Now(),
	}
}

// Add records count events and reports once the threshold or the interval is
// reached. A zero threshold or interval disables that trigger.
func (r *Reporter) Add(count int) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.count += count

	countIncrement := r.count - r.lastReportCount
	elapsed := time.Since(r.lastReportTime)
	if (r.reportCountThreshold != 0 && countIncrement >= r.reportCountThreshold) ||
		(r.reportInterval != 0 && elapsed >= r.reportInterval) {
		return true, r.report(countIncrement, elapsed)
	}
	return false, ""
}

// Report renders the throughput since the last report and starts a new window.
func (r *Reporter) Report() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.report(r.count-r.lastReportCount, time.Since(r.lastReportTime))
}

func (r *Reporter) report(countIncrement int, elapsed time.Duration) string {
	seconds := elapsed.Seconds()
	rate := 0.0
	if seconds > 0 {
		rate = float64(countIncrement) / seconds
	}
	r.lastReportTime = time.Now()
	r.lastReportCount = r.count
	return fmt.Sprintf(r.reportFormat, countIncrement, seconds, rate)
}

func (r *Reporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count
}

// Finish renders the totals since creation with format(count, seconds, rate).
func (r *Reporter) Finish(format string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.startTime).Seconds()
	return fmt.Sprintf(format, r.count, int64(elapsed), float64(r.count)/elapsed)
}
