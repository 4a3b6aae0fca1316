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

// Events are the sole externally observable audit trail of the ledger: one is
// published per state-changing operation. No query path exposes historical
// state, so consumers needing history must subscribe.

// ActionRecordedEvent is published for every credited action, including each
// item of a batch and every verified relayed action.
type ActionRecordedEvent struct {
	Recorder   common.Address // who submitted the write
	Agent      common.Address // whose activity was credited
	ActionType common.ActionType
	Amount     *big.Int
	NewCount   *big.Int // counter for ActionType after the write
	NewTotal   *big.Int // aggregate counter after the write
}

// AgentStatusChangedEvent is published when an agent's active flag is
// overwritten through SetAgentStatus.
type AgentStatusChangedEvent struct {
	Recorder common.Address
	Agent    common.Address
	Active   bool
}

// OwnershipTransferredEvent is published when the ledger controller changes.
type OwnershipTransferredEvent struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

// MainSignerChangedEvent is published when the identity expected to sign
// relayed action intents changes.
type MainSignerChangedEvent struct {
	PreviousSigner common.Address
	NewSigner      common.Address
}
