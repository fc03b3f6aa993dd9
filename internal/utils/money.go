package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPesos renders integer amount as "$120.000".
func FormatPesos(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s$%s", sign, formatThousand(amount))
}

// ParseAmount parses "$ 1.000", "1,000" or "1000" into an integer amount.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	replacer := strings.NewReplacer(".", "", ",", "", " ", "")
	s = replacer.Replace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid amount")
	}
	return strconv.ParseInt(s, 10, 64)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte('.')
		}
		out.WriteRune(c)
	}
	return out.String()
}
