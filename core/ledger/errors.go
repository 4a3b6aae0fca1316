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

package ledger

import (
	"errors"

	"github.com/petstake/go-petstake/core/verify"
)

var (
	// ErrZeroAddress is returned when an operation names the zero address as
	// an agent, owner or signer.
	ErrZeroAddress = errors.New("zero address")

	// ErrZeroAmount is returned when a write carries a zero or negative
	// amount. Batches containing any such item are rejected whole.
	ErrZeroAmount = errors.New("zero amount")

	// ErrArrayLengthMismatch is returned when a batch's action type and
	// amount sequences differ in length.
	ErrArrayLengthMismatch = errors.New("array length mismatch")

	// ErrNotAuthorized is returned when the caller is neither the ledger
	// owner nor the agent being written.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotOwner is returned when an owner-only operation is attempted by
	// another caller.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrInvalidSignature is returned when a verified write's recovered
	// signer does not match the configured main signer, or the signature is
	// structurally unusable.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNonceAlreadyUsed mirrors the verify package sentinel so callers can
	// match on either package.
	ErrNonceAlreadyUsed = verify.ErrNonceAlreadyUsed
)
