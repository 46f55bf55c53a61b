// Package common contains the caller address type shared by all gfundra packages.
package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the expected length of an address in bytes.
const AddressLength = 20

// Address represents the unique, unforgeable identity of a caller.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than AddressLength, b is cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress returns Address with byte values of s.
// If s is larger than AddressLength, s is cropped from the left.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// IsHexAddress verifies whether a string can represent a valid hex-encoded
// address or not.
func IsHexAddress(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != 2*AddressLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns a 0x-prefixed hex representation of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// Format implements fmt.Formatter for %v, %s and %x verbs.
func (a Address) Format(s fmt.State, c rune) {
	switch c {
	case 'x':
		fmt.Fprintf(s, "%x", a[:])
	default:
		fmt.Fprint(s, a.Hex())
	}
}

func fromHex(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
