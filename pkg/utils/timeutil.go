package utils

import (
	"time"
)

// CST is the China Standard Time location (UTC+8) used by A-share markets.
var CST *time.Location

func init() {
	var err error
	CST, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		CST = time.FixedZone("CST", 8*60*60)
	}
}

// ReportTimeLayout is the generation-time format printed on reports.
const ReportTimeLayout = "2006年01月02日 15时04分05秒"

// NowCST returns the current time in CST.
func NowCST() time.Time {
	return time.Now().In(CST)
}

// ParseDateCST parses a date string in "2006-01-02" format and returns it in CST.
func ParseDateCST(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, CST)
}

// FormatDateCST formats a time.Time to "2006-01-02" in CST.
func FormatDateCST(t time.Time) string {
	return t.In(CST).Format("2006-01-02")
}

// FormatReportTime formats t for report headers, e.g. "2025年03月07日 14时05分09秒".
func FormatReportTime(t time.Time) string {
	return t.In(CST).Format(ReportTimeLayout)
}

// IsTradingDay reports whether t falls on a weekday in CST. Exchange holidays are not
// modelled; the market-data provider simply returns no bar for them.
func IsTradingDay(t time.Time) bool {
	wd := t.In(CST).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
