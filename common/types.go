// Copyright 2025 The go-petstake Authors
// This file is part of the go-petstake library.
//
// The go-petstake library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-petstake library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-petstake library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// Lengths of hashes and addresses in bytes.
const (
	// HashLength is the expected length of the hash
	HashLength = 32
	// AddressLength is the expected length of the address
	AddressLength = 20
	// ActionTypeLength is the expected length of an action type discriminator
	ActionTypeLength = 32
)

// Hash represents the 32 byte Keccak256 hash of arbitrary data. It doubles as
// the wire shape of opaque 32 byte values such as replay nonces.
type Hash [HashLength]byte

// BytesToHash sets b to hash.
// If b is larger than len(h), b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// BigToHash sets byte representation of b to hash.
// If b is larger than len(h), b will be cropped from the left.
func BigToHash(b *big.Int) Hash { return BytesToHash(b.Bytes()) }

// HexToHash sets byte representation of s to hash.
// If b is larger than len(h), b will be cropped from the left.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// Bytes gets the byte representation of the underlying hash.
func (h Hash) Bytes() []byte { return h[:] }

// Big converts a hash to a big integer.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// Hex converts a hash to a hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// TerminalString implements log.TerminalStringer, formatting a string for console
// output during logging.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x..%x", h[:3], h[29:])
}

// String implements the stringer interface and is used also by the logger when
// doing full logging into a file.
func (h Hash) String() string {
	return h.Hex()
}

// SetBytes sets the hash to the value of b.
// If b is larger than len(h), b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// MarshalText returns the hex representation of h.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText parses a hash in hex syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Hash", input, h[:])
}

/////////// Address

// Address represents the 20 byte identity of a petstake account. Agents,
// controllers and relayers are all plain addresses; the ledger is keyed
// storage, not an object graph.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// BigToAddress returns Address with byte values of b.
// If b is larger than len(h), b will be cropped from the left.
func BigToAddress(b *big.Int) Address { return BytesToAddress(b.Bytes()) }

// HexToAddress returns Address with byte values of s.
// If s is larger than len(h), s will be cropped from the left.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// IsHexAddress verifies whether a string can represent a valid hex-encoded
// petstake address or not.
func IsHexAddress(s string) bool {
	if has0xPrefix(s) {
		s = s[2:]
	}
	return len(s) == 2*AddressLength && isHex(s)
}

// Bytes gets the string representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// Hash converts an address to a hash by left-padding it with zeros.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

// Big converts an address to a big integer.
func (a Address) Big() *big.Int { return new(big.Int).SetBytes(a[:]) }

// Hex returns a hex string representation of the address.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// IsZero reports whether the address is the all-zero value. A zero address is
// never a legal agent, owner or signer identity.
func (a Address) IsZero() bool {
	return a == Address{}
}

// SetBytes sets the address to the value of b.
// If b is larger than len(a), b will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// MarshalText returns the hex representation of a.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText parses an address in hex syntax.
func (a *Address) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Address", input, a[:])
}

/////////// ActionType

// ActionType is the 32 byte discriminator distinguishing categories of agent
// actions (walk, feed, play, ...). Domain-significant values are opaque byte
// patterns rather than members of a closed enum, so new action categories need
// no central registry.
type ActionType [ActionTypeLength]byte

// BytesToActionType returns ActionType with value b.
// If b is larger than len(t), b will be cropped from the left.
func BytesToActionType(b []byte) ActionType {
	var t ActionType
	t.SetBytes(b)
	return t
}

// HexToActionType returns ActionType with byte values of s.
func HexToActionType(s string) ActionType { return BytesToActionType(FromHex(s)) }

// StringToActionType derives an action type from a human-readable label by
// right-aligning its bytes, the same convention solidity uses for short
// bytes32 literals read back as numbers. Labels longer than 32 bytes are
// cropped from the left.
func StringToActionType(s string) ActionType { return BytesToActionType([]byte(s)) }

// ActionTypeFromID lifts a small numeric discriminator, as carried by signed
// action intents, into the ledger's 32 byte action type space.
func ActionTypeFromID(id uint8) ActionType {
	var t ActionType
	t[ActionTypeLength-1] = id
	return t
}

// Bytes gets the byte representation of the underlying action type.
func (t ActionType) Bytes() []byte { return t[:] }

// Hex converts an action type to a hex string.
func (t ActionType) Hex() string { return "0x" + hex.EncodeToString(t[:]) }

// String implements fmt.Stringer. If the value looks like a right-padded or
// left-padded printable label it is rendered as such, otherwise as hex.
func (t ActionType) String() string {
	if s := t.label(); s != "" {
		return s
	}
	return t.Hex()
}

func (t ActionType) label() string {
	trimmed := bytes.Trim(t[:], "\x00")
	if len(trimmed) == 0 {
		return ""
	}
	for _, c := range trimmed {
		if c < 0x20 || c > 0x7e {
			return ""
		}
	}
	return string(trimmed)
}

// SetBytes sets the action type to the value of b.
// If b is larger than len(t), b will be cropped from the left.
func (t *ActionType) SetBytes(b []byte) {
	if len(b) > len(t) {
		b = b[len(b)-ActionTypeLength:]
	}
	copy(t[ActionTypeLength-len(b):], b)
}

// MarshalText returns the hex representation of t. Implementing TextMarshaler
// also makes ActionType usable as a JSON map key.
func (t ActionType) MarshalText() ([]byte, error) {
	return []byte(t.Hex()), nil
}

// UnmarshalText parses an action type in hex syntax.
func (t *ActionType) UnmarshalText(input []byte) error {
	return unmarshalFixedText("ActionType", input, t[:])
}

// unmarshalFixedText decodes hex input into out, requiring an exact length
// match. The 0x prefix is mandatory.
func unmarshalFixedText(typname string, input, out []byte) error {
	s := string(input)
	if !has0xPrefix(s) {
		return fmt.Errorf("hex string without 0x prefix for %s", typname)
	}
	raw := s[2:]
	if len(raw) != 2*len(out) {
		return fmt.Errorf("hex string of length %d for %s, want %d", len(raw), typname, 2*len(out))
	}
	if _, err := hex.Decode(out, []byte(raw)); err != nil {
		return errors.New("invalid hex string for " + typname)
	}
	return nil
}
