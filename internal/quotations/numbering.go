package quotations

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber renders a quotation number as PREFIX-N.
func FormatNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%d", prefix, seq)
}

// ParseNumberSuffix extracts the numeric suffix of a quotation number for the
// given prefix. Returns false when the number does not carry a parsable
// suffix for that prefix.
func ParseNumberSuffix(number, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(number, prefix+"-")
	if !ok {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// NextNumber derives the next sequential quotation number for a company from
// the last issued one. When no previous number exists, or the last one does
// not parse against the company prefix, numbering restarts at the configured
// starting value; the unique constraint on quotation numbers catches any
// collision that produces.
func NextNumber(lastNumber, prefix string, startNumber int64) string {
	if lastNumber == "" {
		return FormatNumber(prefix, startNumber)
	}
	seq, ok := ParseNumberSuffix(lastNumber, prefix)
	if !ok {
		return FormatNumber(prefix, startNumber)
	}
	return FormatNumber(prefix, seq+1)
}
