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

package verify

import (
	"math/big"

	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/crypto"
)

// Domain is the EIP-712 style domain separation context. All four fields are
// bound into every digest so a signature produced for one deployment can never
// authenticate against another (different chain, different ledger instance,
// different protocol revision).
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// ActionIntent is the payload an actor signs off-chain to pre-authorize a
// single action credit. The nonce makes the intent single-use; the timestamp
// records when the actor produced it.
type ActionIntent struct {
	ActionID  uint8
	Nonce     common.Hash
	Timestamp uint64
}

var (
	domainTypeHash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	intentTypeHash = crypto.Keccak256Hash(
		[]byte("ActionIntent(uint8 actionId,bytes32 nonce,uint256 timestamp)"),
	)
)

// Separator computes the domain separator hash binding all four domain fields.
func (d *Domain) Separator() common.Hash {
	chainID := d.ChainID
	if chainID == nil {
		chainID = common.Big0
	}
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		crypto.Keccak256([]byte(d.Name)),
		crypto.Keccak256([]byte(d.Version)),
		common.LeftPadBytes(chainID.Bytes(), 32),
		common.LeftPadBytes(d.VerifyingContract.Bytes(), 32),
	)
}

// hashStruct computes the typed-data struct hash of the intent. Every field is
// encoded as a 32 byte word, matching the canonical abi encoding of the
// source domain.
func (in *ActionIntent) hashStruct() common.Hash {
	return crypto.Keccak256Hash(
		intentTypeHash.Bytes(),
		common.LeftPadBytes([]byte{in.ActionID}, 32),
		in.Nonce.Bytes(),
		common.LeftPadBytes(new(big.Int).SetUint64(in.Timestamp).Bytes(), 32),
	)
}

// SigningDigest returns the digest an actor signs: keccak256(0x19 || 0x01 ||
// domainSeparator || structHash).
func SigningDigest(domain *Domain, intent *ActionIntent) common.Hash {
	separator := domain.Separator()
	structHash := intent.hashStruct()
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		separator.Bytes(),
		structHash.Bytes(),
	)
}
