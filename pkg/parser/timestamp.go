package parser

import (
	"fmt"
	"strings"
)

var months = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// MinuteKey converts a combined-log timestamp such as
// "10/Oct/2000:13:55:36 -0700" into "2000-10-10 13:55".
// The zone offset is ignored: the key is the wall-clock minute as logged.
func MinuteKey(ts string) (string, error) {
	slash1 := strings.IndexByte(ts, '/')
	if slash1 < 0 {
		return "", ErrBadTimestamp
	}
	slash2 := indexByteFrom(ts, '/', slash1+1)
	if slash2 < 0 {
		return "", ErrBadTimestamp
	}
	colon := indexByteFrom(ts, ':', slash2+1)
	if colon < 0 {
		return "", ErrBadTimestamp
	}

	// HH starts right after the colon, MM after the next separator.
	if colon+4 >= len(ts) {
		return "", ErrBadTimestamp
	}
	hhField := ts[colon+1 : min(colon+3, len(ts))]
	mmField := ts[colon+4 : min(colon+6, len(ts))]

	day, ok := parseInt(ts[:slash1])
	if !ok {
		return "", ErrBadTimestamp
	}
	year, ok := parseInt(ts[slash2+1 : colon])
	if !ok {
		return "", ErrBadTimestamp
	}
	hour, ok := parseInt(hhField)
	if !ok {
		return "", ErrBadTimestamp
	}
	minute, ok := parseInt(mmField)
	if !ok {
		return "", ErrBadTimestamp
	}

	month, ok := months[ts[slash1+1:slash2]]
	if !ok {
		return "", ErrUnknownMonth
	}

	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", year, month, day, hour, minute), nil
}

func indexByteFrom(s string, c byte, from int) int {
	if from > len(s) {
		return -1
	}
	i := strings.IndexByte(s[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}
