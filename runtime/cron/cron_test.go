package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCronExprFiveFieldsPassesThrough(t *testing.T) {
	normalized, err := normalizeCronExpr("*/5 * * * *")
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", normalized)
}

func TestNormalizeCronExprSixFieldsPassesThrough(t *testing.T) {
	normalized, err := normalizeCronExpr("30 */5 * * * *")
	require.NoError(t, err)
	assert.Equal(t, "30 */5 * * * *", normalized)
}

func TestNormalizeCronExprSevenFieldsDropsYear(t *testing.T) {
	normalized, err := normalizeCronExpr("0 30 9 * * * 2026")
	require.NoError(t, err)
	assert.Equal(t, "0 30 9 * * *", normalized)
}

func TestNormalizeCronExprRejectsOtherArities(t *testing.T) {
	_, err := normalizeCronExpr("* * *")
	assert.Error(t, err)
}

func TestCronParserAcceptsNormalizedExpressions(t *testing.T) {
	_, err := cronParser.Parse("0 */5 * * * *")
	assert.NoError(t, err)

	_, err = cronParser.Parse("*/5 * * * *")
	assert.NoError(t, err)
}

func TestDecodeArgsEmptyStringIsNoArgs(t *testing.T) {
	args, err := decodeArgs("")
	require.NoError(t, err)
	assert.Nil(t, args)
}

func TestDecodeArgsRejectsNonArray(t *testing.T) {
	_, err := decodeArgs(`{"not": "an array"}`)
	assert.Error(t, err)
}

func TestDecodeArgsParsesJSONArray(t *testing.T) {
	args, err := decodeArgs(`["hello", 42]`)
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, "hello", args[0])
	assert.Equal(t, float64(42), args[1])
}
