package util

import (
	"fmt"
	"strconv"
	"time"
)

// FormatNumber renders an integer with comma separators for embed text
// (1234567 -> "1,234,567").
func FormatNumber(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return sign + s
	}

	var out []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return sign + string(out)
}

// FormatTimeAgo renders a Unix millisecond timestamp relative to now, for
// the favorites listing ("5m ago"). Zero means never.
func FormatTimeAgo(timestamp int64) string {
	if timestamp == 0 {
		return "Never"
	}

	elapsed := time.Since(time.UnixMilli(timestamp))
	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours())/24)
	}
}
