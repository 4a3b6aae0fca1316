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
	mapset "github.com/deckarep/golang-set"
	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/petdb"
)

// noncePrefix namespaces consumed nonce keys inside the shared store.
var noncePrefix = []byte("petstake-nonce-")

// NonceSet is the monotonically growing set of consumed replay nonces. A
// nonce, once consumed, can never again authenticate a write; entries are
// never removed. The set is fronted by an in-memory index and persisted
// through the ledger's commit batch so consumption shares the write path's
// atomicity.
//
// NonceSet is not internally synchronized: the owning ledger serializes all
// access under its write lock.
type NonceSet struct {
	known   mapset.Set    // consumed nonces, including not-yet-flushed ones
	pending []common.Hash // consumed since the last commit, in order
}

// NewNonceSet loads the consumed-nonce set from the given store.
func NewNonceSet(db petdb.Database) (*NonceSet, error) {
	ns := &NonceSet{
		known: mapset.NewThreadUnsafeSet(),
	}
	it := db.NewIterator(noncePrefix)
	defer it.Release()
	for it.Next() {
		ns.known.Add(common.BytesToHash(it.Key()[len(noncePrefix):]))
	}
	return ns, nil
}

// Contains reports whether the nonce has been consumed.
func (ns *NonceSet) Contains(nonce common.Hash) bool {
	return ns.known.Contains(nonce)
}

// Consume marks the nonce as used. It fails with ErrNonceAlreadyUsed if the
// nonce was consumed before, leaving the set unchanged.
func (ns *NonceSet) Consume(nonce common.Hash) error {
	if ns.known.Contains(nonce) {
		return ErrNonceAlreadyUsed
	}
	ns.known.Add(nonce)
	ns.pending = append(ns.pending, nonce)
	return nil
}

// Unconsume rolls back the most recent not-yet-flushed consumption of the
// given nonce. It exists so a journaled write that consumed a nonce and then
// failed downstream can unwind without burning the nonce.
func (ns *NonceSet) Unconsume(nonce common.Hash) {
	for i := len(ns.pending) - 1; i >= 0; i-- {
		if ns.pending[i] == nonce {
			ns.pending = append(ns.pending[:i], ns.pending[i+1:]...)
			ns.known.Remove(nonce)
			return
		}
	}
}

// Flush appends all pending consumptions to the batch. The pending list is
// kept until Commit so that a batch write failing after Flush can still be
// unwound through Unconsume without stranding nonces in the known set.
func (ns *NonceSet) Flush(batch petdb.Batch) error {
	for _, nonce := range ns.pending {
		if err := batch.Put(nonceKey(nonce), []byte{0x01}); err != nil {
			return err
		}
	}
	return nil
}

// Commit clears the pending list once the owning batch has landed.
func (ns *NonceSet) Commit() {
	ns.pending = ns.pending[:0]
}

// Len returns the number of consumed nonces known to the set.
func (ns *NonceSet) Len() int {
	return ns.known.Cardinality()
}

func nonceKey(nonce common.Hash) []byte {
	return append(append([]byte{}, noncePrefix...), nonce.Bytes()...)
}
