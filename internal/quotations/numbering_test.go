package quotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextNumberFirstEver(t *testing.T) {
	assert.Equal(t, "MN-1000", NextNumber("", "MN", 1000))
}

func TestNextNumberIncrements(t *testing.T) {
	assert.Equal(t, "MN-1043", NextNumber("MN-1042", "MN", 1000))
}

func TestNextNumberUnparsableRestarts(t *testing.T) {
	assert.Equal(t, "MN-1000", NextNumber("LEGACY-77", "MN", 1000))
	assert.Equal(t, "MN-1000", NextNumber("MN-abc", "MN", 1000))
}

func TestNextNumberPrefixesAreIndependent(t *testing.T) {
	assert.Equal(t, "CS-5001", NextNumber("CS-5000", "CS", 5000))
	assert.Equal(t, "MN-1001", NextNumber("MN-1000", "MN", 1000))
}

func TestParseNumberSuffix(t *testing.T) {
	seq, ok := ParseNumberSuffix("MN-1042", "MN")
	assert.True(t, ok)
	assert.Equal(t, int64(1042), seq)

	_, ok = ParseNumberSuffix("CS-1042", "MN")
	assert.False(t, ok)

	_, ok = ParseNumberSuffix("MN-", "MN")
	assert.False(t, ok)

	_, ok = ParseNumberSuffix("MN--5", "MN")
	assert.False(t, ok)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "CS-5000", FormatNumber("CS", 5000))
}
