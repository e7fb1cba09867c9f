package rowmap

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	dayFirst = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
	listSep  = regexp.MustCompile(`[,;\s]+`)
)

var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// Midnight truncates t to 00:00 UTC on its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts DD-MM-YYYY, DD/MM/YYYY, DD.MM.YYYY, ISO dates and
// timestamps, and Excel serial day numbers. The result is a UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if m := dayFirst.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || int(t.Month()) != month {
			return time.Time{}, fmt.Errorf("invalid date %q", raw)
		}
		return t, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Midnight(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return Midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// ParseAmount strips thousands separators and currency noise. Unparseable
// input yields 0 and ok=false.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "INR", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// NormalizeSerial renders numeric serials without exponent or fraction.
func NormalizeSerial(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && f >= 0 && f < 1e15 && strings.ContainsAny(s, ".eE") {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// NormalizeEnum returns the canonical spelling of raw among values.
func NormalizeEnum(raw string, values []string) (string, bool) {
	s := strings.TrimSpace(raw)
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}

// SplitList splits contact cells on commas, semicolons and whitespace.
func SplitList(raw string) []string {
	var out []string
	for _, part := range listSep.Split(strings.TrimSpace(raw), -1) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
