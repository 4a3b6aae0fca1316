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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHexAddress(t *testing.T) {
	tests := []struct {
		str string
		exp bool
	}{
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed1", false},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beae", false},
		{"0xxaaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, IsHexAddress(test.str), "input %q", test.str)
	}
}

func TestAddressIsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.False(t, HexToAddress("0x01").IsZero())
}

func TestActionTypeLabels(t *testing.T) {
	// Distinct labels give distinct discriminators.
	walk := StringToActionType("walk")
	feed := StringToActionType("feed")
	require.NotEqual(t, walk, feed)

	// Printable labels round-trip through String.
	assert.Equal(t, "walk", walk.String())

	// Numeric discriminators land in the low byte, disjoint from any
	// multi-character label.
	id := ActionTypeFromID(7)
	assert.Equal(t, byte(7), id[ActionTypeLength-1])
	assert.NotEqual(t, walk, id)

	// Non-printable values render as hex.
	raw := BytesToActionType([]byte{0x01, 0xff})
	assert.Equal(t, raw.Hex(), raw.String())
}

func TestActionTypeTextRoundtrip(t *testing.T) {
	orig := StringToActionType("play")
	text, err := orig.MarshalText()
	require.NoError(t, err)

	var decoded ActionType
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, orig, decoded)

	// The 0x prefix is mandatory and the length must match exactly.
	assert.Error(t, decoded.UnmarshalText([]byte("ff")))
	assert.Error(t, decoded.UnmarshalText([]byte("0xff")))
}
