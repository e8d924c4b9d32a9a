// Package checksum implements the 32-byte content digest used to identify
// component binaries, rendered as a lowercase hex string prefixed with
// "0x". It is grounded on asterai/src/checksum.rs, adapted to Go's
// crypto/sha256 and encoding/hex instead of the sha2/hex crates.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Size is the number of bytes in a Checksum.
const Size = 32

// Checksum is a 32-byte digest that compares by value.
type Checksum [Size]byte

// New wraps an existing 32-byte value.
func New(value [Size]byte) Checksum {
	return Checksum(value)
}

// FromSlice validates that b holds exactly Size bytes and wraps it.
func FromSlice(b []byte) (Checksum, error) {
	var c Checksum
	if len(b) != Size {
		return c, fmt.Errorf("checksum: expected %d bytes, got %d", Size, len(b))
	}
	copy(c[:], b)
	return c, nil
}

// FromBytes computes the SHA-256 digest of data.
func FromBytes(data []byte) Checksum {
	return Checksum(sha256.Sum256(data))
}

// FromString computes the SHA-256 digest of s's UTF-8 bytes.
func FromString(s string) Checksum {
	return FromBytes([]byte(s))
}

// Bytes returns a copy of the underlying 32 bytes.
func (c Checksum) Bytes() [Size]byte {
	return c
}

// Slice returns the underlying bytes as a slice.
func (c Checksum) Slice() []byte {
	return c[:]
}

// String renders the checksum as "0x" followed by 64 lowercase hex digits.
func (c Checksum) String() string {
	return "0x" + hex.EncodeToString(c[:])
}

// ParseHex parses a string produced by String back into a Checksum.
func ParseHex(s string) (Checksum, error) {
	var c Checksum
	hexPart, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return c, fmt.Errorf("checksum: expected string to start with 0x, got %q", s)
	}
	b, err := hex.DecodeString(hexPart)
	if err != nil {
		return c, fmt.Errorf("checksum: invalid hex: %w", err)
	}
	return FromSlice(b)
}

func (c Checksum) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Checksum) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHex(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Checksum) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Checksum) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
