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
	"encoding/json"
	"math/big"

	"github.com/petstake/go-petstake/common"
)

// recordPrefix namespaces agent record keys inside the shared store.
var recordPrefix = []byte("petstake-agent-")

// Administrative identities persist under fixed meta keys so ownership
// changes survive a restart.
var (
	metaOwnerKey  = []byte("petstake-meta-owner")
	metaSignerKey = []byte("petstake-meta-signer")
)

// AgentRecord is the mutable per-agent state the ledger owns. Records are
// created zero-valued on first touch and never deleted. Total always equals
// the sum of the per-type counters; it is maintained incrementally, never
// recomputed.
type AgentRecord struct {
	Counters     map[common.ActionType]*big.Int `json:"counters"`
	Total        *big.Int                       `json:"total"`
	LastActionAt uint64                         `json:"lastActionAt"` // unix seconds; 0 means never acted
	Active       bool                           `json:"active"`
}

// newAgentRecord returns a zero-valued record for a previously unseen agent.
func newAgentRecord() *AgentRecord {
	return &AgentRecord{
		Counters: make(map[common.ActionType]*big.Int),
		Total:    new(big.Int),
	}
}

// Count returns the counter for the given action type, zero if absent. The
// returned value must not be mutated by the caller.
func (r *AgentRecord) Count(actionType common.ActionType) *big.Int {
	if c, ok := r.Counters[actionType]; ok {
		return c
	}
	return common.Big0
}

// MarshalBinary encodes the record for persistence. Records are stored as
// JSON: the values are flat keyed scalars and big integers, which JSON keeps
// readable in debugging dumps.
func (r *AgentRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalBinary decodes a persisted record.
func (r *AgentRecord) UnmarshalBinary(data []byte) error {
	if err := json.Unmarshal(data, r); err != nil {
		return err
	}
	if r.Counters == nil {
		r.Counters = make(map[common.ActionType]*big.Int)
	}
	if r.Total == nil {
		r.Total = new(big.Int)
	}
	return nil
}

func recordKey(agent common.Address) []byte {
	return append(append([]byte{}, recordPrefix...), agent.Bytes()...)
}
