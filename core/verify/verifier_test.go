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
	"testing"

	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/crypto"
	"github.com/petstake/go-petstake/params"
	"github.com/petstake/go-petstake/petdb/memorydb"
	"github.com/stretchr/testify/require"
)

func testDomain() Domain {
	return Domain{
		Name:              params.SigningDomainName,
		Version:           params.SigningDomainVersion,
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000deadbeef"),
	}
}

func TestRecoverSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	domain := testDomain()
	v := NewVerifier(domain)

	intent := &ActionIntent{
		ActionID:  1,
		Nonce:     common.HexToHash("0x01"),
		Timestamp: 1_700_000_000,
	}
	sig, err := SignIntent(&domain, intent, key)
	require.NoError(t, err)

	recovered, err := v.RecoverSigner(intent, sig)
	require.NoError(t, err)
	require.Equal(t, signer, recovered)

	// Second recovery hits the cache and must agree.
	again, err := v.RecoverSigner(intent, sig)
	require.NoError(t, err)
	require.Equal(t, recovered, again)
}

func TestRecoverSignerTamperedPayload(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	domain := testDomain()
	v := NewVerifier(domain)

	intent := &ActionIntent{ActionID: 1, Nonce: common.HexToHash("0x02"), Timestamp: 100}
	sig, err := SignIntent(&domain, intent, key)
	require.NoError(t, err)

	// A different payload under the same signature recovers some other
	// identity; it does not error.
	tampered := &ActionIntent{ActionID: 2, Nonce: common.HexToHash("0x02"), Timestamp: 100}
	recovered, err := v.RecoverSigner(tampered, sig)
	if err == nil {
		require.NotEqual(t, signer, recovered)
	}
}

func TestRecoverSignerCrossDomain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	domain := testDomain()
	intent := &ActionIntent{ActionID: 1, Nonce: common.HexToHash("0x03"), Timestamp: 100}
	sig, err := SignIntent(&domain, intent, key)
	require.NoError(t, err)

	// Same payload, different chain: the signature must not carry over.
	otherChain := domain
	otherChain.ChainID = big.NewInt(1)
	recovered, err := NewVerifier(otherChain).RecoverSigner(intent, sig)
	if err == nil {
		require.NotEqual(t, signer, recovered)
	}

	// Same payload, different ledger instance.
	otherLedger := domain
	otherLedger.VerifyingContract = common.HexToAddress("0x01")
	recovered, err = NewVerifier(otherLedger).RecoverSigner(intent, sig)
	if err == nil {
		require.NotEqual(t, signer, recovered)
	}
}

func TestRecoverSignerBadLength(t *testing.T) {
	v := NewVerifier(testDomain())
	intent := &ActionIntent{ActionID: 1, Nonce: common.HexToHash("0x04"), Timestamp: 100}

	_, err := v.RecoverSigner(intent, make([]byte, 64))
	require.Error(t, err)
}

func TestSigningDigestDeterminism(t *testing.T) {
	domain := testDomain()
	intent := &ActionIntent{ActionID: 7, Nonce: common.HexToHash("0x05"), Timestamp: 42}

	d1 := SigningDigest(&domain, intent)
	d2 := SigningDigest(&domain, intent)
	require.Equal(t, d1, d2)

	// Any field change moves the digest.
	changed := *intent
	changed.Timestamp = 43
	require.NotEqual(t, d1, SigningDigest(&domain, &changed))
}

func TestNonceSetConsume(t *testing.T) {
	db := memorydb.New()
	ns, err := NewNonceSet(db)
	require.NoError(t, err)

	nonce := common.HexToHash("0xaa")
	require.NoError(t, ns.Consume(nonce))
	require.True(t, ns.Contains(nonce))

	// Second consumption always fails, regardless of flush state.
	require.ErrorIs(t, ns.Consume(nonce), ErrNonceAlreadyUsed)

	batch := db.NewBatch()
	require.NoError(t, ns.Flush(batch))
	require.NoError(t, batch.Write())
	ns.Commit()
	require.ErrorIs(t, ns.Consume(nonce), ErrNonceAlreadyUsed)
}

func TestNonceSetUnconsumeAfterFlush(t *testing.T) {
	db := memorydb.New()
	ns, err := NewNonceSet(db)
	require.NoError(t, err)

	// Flush stages the consumption but the batch never lands, so the
	// consumption must still be revertable.
	nonce := common.HexToHash("0xab")
	require.NoError(t, ns.Consume(nonce))
	batch := db.NewBatch()
	require.NoError(t, ns.Flush(batch))

	ns.Unconsume(nonce)
	require.False(t, ns.Contains(nonce))
	require.NoError(t, ns.Consume(nonce), "an unconsumed nonce is fresh again")
}

func TestNonceSetUnconsume(t *testing.T) {
	db := memorydb.New()
	ns, err := NewNonceSet(db)
	require.NoError(t, err)

	nonce := common.HexToHash("0xbb")
	require.NoError(t, ns.Consume(nonce))
	ns.Unconsume(nonce)
	require.False(t, ns.Contains(nonce))

	// The rolled back nonce may authenticate again.
	require.NoError(t, ns.Consume(nonce))
}

func TestNonceSetReload(t *testing.T) {
	db := memorydb.New()
	ns, err := NewNonceSet(db)
	require.NoError(t, err)

	nonce := common.HexToHash("0xcc")
	require.NoError(t, ns.Consume(nonce))
	batch := db.NewBatch()
	require.NoError(t, ns.Flush(batch))
	require.NoError(t, batch.Write())
	ns.Commit()

	// A fresh set over the same store remembers the consumption.
	reloaded, err := NewNonceSet(db)
	require.NoError(t, err)
	require.True(t, reloaded.Contains(nonce))
	require.ErrorIs(t, reloaded.Consume(nonce), ErrNonceAlreadyUsed)
	require.Equal(t, 1, reloaded.Len())
}
