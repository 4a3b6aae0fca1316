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

package params

import "math/big"

// Fixed-point scale for liveness ratios. A ratio of one action per second is
// RatioPrecision; half an action per second is RatioPrecision/2.
// Example: To express 0.5 actions/sec, use
//
//	new(big.Int).Div(params.RatioPrecision, big.NewInt(2))
const (
	RatioDecimals = 18
)

var (
	// RatioPrecision is 10^18, the denominator of all liveness ratios.
	RatioPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(RatioDecimals), nil)
)

// Checkpoint window bounds.
const (
	// MaxCheckpointGap is the longest elapsed time, in seconds, a checkpoint
	// pair may span and still qualify. Gaps of 30 days or more always fail
	// the ratio check, so an implausibly long window cannot dilute it.
	MaxCheckpointGap = 30 * 24 * 60 * 60 // 2_592_000
)

// Typed-data domain defaults bound into every signed action intent.
const (
	SigningDomainName    = "PetStakeActivity"
	SigningDomainVersion = "1"
)
