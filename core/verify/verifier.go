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

// Package verify recovers and authenticates the signers of action intents and
// tracks consumed replay nonces.
package verify

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/crypto"
)

// recoverCacheSize bounds the digest+signature -> signer memoization cache.
// Relayers routinely resubmit identical payloads, so recovery results are
// worth keeping around.
const recoverCacheSize = 4096

// ErrNonceAlreadyUsed is returned when a nonce embedded in a signed intent has
// already authenticated an earlier write.
var ErrNonceAlreadyUsed = errors.New("nonce already used")

// Verifier recovers the signer identities of action intents under a fixed
// domain separation context. Recovery is pure: it never consults or mutates
// the nonce set and it never compares the result against an expected signer.
// That comparison belongs to the caller.
type Verifier struct {
	domain Domain

	sigCache *lru.Cache // digest+sig -> common.Address
}

// NewVerifier creates a verifier bound to the given domain.
func NewVerifier(domain Domain) *Verifier {
	cache, _ := lru.New(recoverCacheSize)
	return &Verifier{
		domain:   domain,
		sigCache: cache,
	}
}

// Domain returns the verifier's domain separation context.
func (v *Verifier) Domain() Domain {
	return v.domain
}

// RecoverSigner recovers the address that signed the given intent. Malformed
// signatures that decode at all recover to an unrelated address rather than
// erroring; only structurally invalid signatures (wrong length, out-of-range
// values) produce an error.
func (v *Verifier) RecoverSigner(intent *ActionIntent, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes long", crypto.SignatureLength)
	}
	digest := SigningDigest(&v.domain, intent)

	cacheKey := string(digest.Bytes()) + string(sig)
	if cached, ok := v.sigCache.Get(cacheKey); ok {
		return cached.(common.Address), nil
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	signer := crypto.PubkeyToAddress(*pub)
	v.sigCache.Add(cacheKey, signer)
	return signer, nil
}

// SignIntent produces a [R || S || V] signature over the intent's typed-data
// digest under the verifier's domain. Used by actors and by tests; the ledger
// itself never signs.
func SignIntent(domain *Domain, intent *ActionIntent, key *ecdsa.PrivateKey) ([]byte, error) {
	digest := SigningDigest(domain, intent)
	return crypto.Sign(digest.Bytes(), key)
}
