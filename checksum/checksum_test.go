package checksum_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/checksum"
)

func TestStringRoundTrip(t *testing.T) {
	value := [checksum.Size]byte{
		0x00, 0x1a, 0x88, 0xb4, 0x0d, 0x7e, 0x4a, 0x0a, 0x02, 0x3c, 0x69, 0x10, 0xd1, 0x04,
		0x92, 0xca, 0x5f, 0x30, 0x61, 0xe0, 0xf9, 0x66, 0x38, 0x2d, 0x24, 0x4c, 0xdd, 0x1a,
		0xff, 0x87, 0x9d, 0xd2,
	}
	c := checksum.New(value)
	assert.Equal(t, "0x001a88b40d7e4a0a023c6910d10492ca5f3061e0f966382d244cdd1aff879dd2", c.String())

	parsed, err := checksum.ParseHex(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, parsed)
}

func TestJSONRoundTrip(t *testing.T) {
	c := checksum.FromString("hello world")
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded checksum.Checksum
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c, decoded)
}

func TestParseHexRejectsMissingPrefix(t *testing.T) {
	_, err := checksum.ParseHex("001a88b4")
	assert.Error(t, err)
}

func TestParseHexRejectsWrongLength(t *testing.T) {
	_, err := checksum.ParseHex("0xabcd")
	assert.Error(t, err)
}

func TestFromSliceRejectsWrongLength(t *testing.T) {
	_, err := checksum.FromSlice(make([]byte, 10))
	assert.Error(t, err)
}

func TestEqualityByValue(t *testing.T) {
	a := checksum.FromString("same input")
	b := checksum.FromString("same input")
	assert.Equal(t, a, b)
	assert.True(t, a == b)
}
