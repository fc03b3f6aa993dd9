package utils

import (
	"errors"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// legacyLedgerLayouts are the locale strings older sheets carry in Fecha
// (en-US month/day order, with and without seconds).
var legacyLedgerLayouts = []string{
	"1/2/2006, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/2006, 15:04:05",
}

// ErrUnknownTimeLayout means a ledger cell is not in any known layout.
var ErrUnknownTimeLayout = errors.New("unknown ledger time layout")

// ParseDateTime parses "YYYY-MM-DD HH:MM:SS" in local timezone.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDateTime, strings.TrimSpace(s), time.Local)
}

// ParseLedgerTime reads a Fecha/FechaConfirmacion cell. It accepts the
// layout FormatDateTime writes plus the legacy locale strings.
func ParseLedgerTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnknownTimeLayout
	}
	if t, err := ParseDateTime(s); err == nil {
		return t, nil
	}
	// "9:00:00 a. m." style meridiem
	norm := strings.NewReplacer("a. m.", "AM", "p. m.", "PM", "a.m.", "AM", "p.m.", "PM").Replace(s)
	for _, layout := range legacyLedgerLayouts {
		if t, err := time.ParseInLocation(layout, norm, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnknownTimeLayout
}

// FormatDate formats time to YYYY-MM-DD in local timezone.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(layoutDate)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTime)
}
