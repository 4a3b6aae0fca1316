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
	"math/big"

	"github.com/petstake/go-petstake/common"
)

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*Ledger)

	// dirtied returns the agent address modified by this journal entry.
	dirtied() *common.Address
}

// journal contains the list of state modifications applied since the last
// commit. These are tracked to be able to be reverted in case a batch item
// fails validation after earlier items already applied, so that no partial
// increments survive a failed call.
type journal struct {
	entries []journalEntry         // Current changes tracked by the journal
	dirties map[common.Address]int // Dirty agents and the number of changes
}

// newJournal creates a new initialized journal.
func newJournal() *journal {
	return &journal{
		dirties: make(map[common.Address]int),
	}
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
	if addr := entry.dirtied(); addr != nil {
		j.dirties[*addr]++
	}
}

// revert undoes a batch of journalled modifications along with any reverted
// dirty handling too.
func (j *journal) revert(l *Ledger, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		// Undo the changes made by the operation
		j.entries[i].revert(l)

		// Drop any dirty tracking induced by the change
		if addr := j.entries[i].dirtied(); addr != nil {
			if j.dirties[*addr]--; j.dirties[*addr] == 0 {
				delete(j.dirties, *addr)
			}
		}
	}
	j.entries = j.entries[:snapshot]
}

// reset clears the journal after a successful commit.
func (j *journal) reset() {
	j.entries = j.entries[:0]
	j.dirties = make(map[common.Address]int)
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	// Changes to individual agent records.
	counterChange struct {
		agent      *common.Address
		actionType common.ActionType
		prev       *big.Int // nil if the counter did not exist before
	}
	totalChange struct {
		agent *common.Address
		prev  *big.Int
	}
	lastActionChange struct {
		agent *common.Address
		prev  uint64
	}
	activeChange struct {
		agent *common.Address
		prev  bool
	}

	// Changes to ledger-wide state.
	nonceConsumedChange struct {
		nonce common.Hash
	}
)

func (ch counterChange) revert(l *Ledger) {
	rec := l.records[*ch.agent]
	if ch.prev == nil {
		delete(rec.Counters, ch.actionType)
	} else {
		rec.Counters[ch.actionType] = ch.prev
	}
}

func (ch counterChange) dirtied() *common.Address {
	return ch.agent
}

func (ch totalChange) revert(l *Ledger) {
	l.records[*ch.agent].Total = ch.prev
}

func (ch totalChange) dirtied() *common.Address {
	return ch.agent
}

func (ch lastActionChange) revert(l *Ledger) {
	l.records[*ch.agent].LastActionAt = ch.prev
}

func (ch lastActionChange) dirtied() *common.Address {
	return ch.agent
}

func (ch activeChange) revert(l *Ledger) {
	l.records[*ch.agent].Active = ch.prev
}

func (ch activeChange) dirtied() *common.Address {
	return ch.agent
}

func (ch nonceConsumedChange) revert(l *Ledger) {
	l.nonces.Unconsume(ch.nonce)
}

func (ch nonceConsumedChange) dirtied() *common.Address {
	return nil
}
