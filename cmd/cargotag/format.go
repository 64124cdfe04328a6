package main

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatBytes renders n with digit grouping, e.g. "48,213 bytes".
func formatBytes(n int64) string {
	if n == 1 {
		return "1 byte"
	}
	return printer.Sprintf("%d bytes", n)
}

func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatMillis(ms int64) string {
	return formatTimestamp(time.UnixMilli(ms))
}
