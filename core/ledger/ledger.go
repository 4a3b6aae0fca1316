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

// Package ledger implements authoritative per-agent action bookkeeping: the
// counters, timestamps and active flags the activity evaluator snapshots at
// checkpoints.
package ledger

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/core/verify"
	"github.com/petstake/go-petstake/event"
	"github.com/petstake/go-petstake/params"
	"github.com/petstake/go-petstake/petdb"
)

// Config carries the constructor-time parameters of a ledger instance. No
// defaults exist for the correctness-critical identities; a zero owner is
// rejected.
type Config struct {
	// Owner is the designated controller. It may record on behalf of any
	// agent and perform administrative operations.
	Owner common.Address

	// MainSigner is the identity expected to have signed relayed action
	// intents. May be the zero address if the verified write path is unused.
	MainSigner common.Address

	// ChainID and LedgerAddress are bound into the signing domain, so
	// signatures cannot replay across deployments.
	ChainID       *big.Int
	LedgerAddress common.Address
}

// Ledger owns all per-agent records and the consumed-nonce set; nothing else
// mutates them. Authorization follows the self-or-owner model: direct writes
// are accepted from the ledger owner or from the agent itself. The relayed
// RecordVerifiedAction path is open to any caller; there the embedded
// signature is the authorization and the recovered signer is the credited
// identity, decoupling who submits from whose activity is recorded.
//
// A single mutex serializes all writes, standing in for the transaction
// serialization a chain runtime would provide. Each write operation's
// read-modify-write sequence is journaled and either commits fully or reverts
// fully; the persisted form is flushed in one atomic store batch.
type Ledger struct {
	mu sync.RWMutex

	db       petdb.Database
	verifier *verify.Verifier
	nonces   *verify.NonceSet

	owner      common.Address
	mainSigner common.Address

	records map[common.Address]*AgentRecord // live records, loaded on first touch
	journal *journal

	feed event.Feed
	log  log15.Logger
	now  func() uint64 // injectable clock for tests
}

// New creates a ledger over the given store, replaying any persisted records
// and consumed nonces.
func New(db petdb.Database, cfg Config) (*Ledger, error) {
	if cfg.Owner.IsZero() {
		return nil, fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	nonces, err := verify.NewNonceSet(db)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		db: db,
		verifier: verify.NewVerifier(verify.Domain{
			Name:              params.SigningDomainName,
			Version:           params.SigningDomainVersion,
			ChainID:           cfg.ChainID,
			VerifyingContract: cfg.LedgerAddress,
		}),
		nonces:     nonces,
		owner:      cfg.Owner,
		mainSigner: cfg.MainSigner,
		records:    make(map[common.Address]*AgentRecord),
		journal:    newJournal(),
		log:        log15.New("module", "ledger"),
		now:        func() uint64 { return uint64(time.Now().Unix()) },
	}
	// Persisted administrative identities take precedence over constructor
	// values, so an ownership transfer survives a restart.
	if data, err := db.Get(metaOwnerKey); err == nil && len(data) == common.AddressLength {
		l.owner = common.BytesToAddress(data)
	}
	if data, err := db.Get(metaSignerKey); err == nil && len(data) == common.AddressLength {
		l.mainSigner = common.BytesToAddress(data)
	}
	l.log.Info("Action ledger opened", "owner", l.owner, "mainSigner", l.mainSigner, "nonces", nonces.Len())
	return l, nil
}

// Owner returns the current controller identity.
func (l *Ledger) Owner() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

// MainSigner returns the identity expected to sign relayed intents.
func (l *Ledger) MainSigner() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mainSigner
}

// Domain returns the signing domain relayed intents must be produced under.
func (l *Ledger) Domain() verify.Domain {
	return l.verifier.Domain()
}

// SubscribeEvents registers an event subscriber with the given buffer size.
func (l *Ledger) SubscribeEvents(buffer int) *event.Subscription {
	return l.feed.Subscribe(buffer)
}

// RecordAction increments the agent's counter for the given action type and
// its aggregate total by amount, stamps the action time and marks the agent
// active. The caller must be the owner or the agent itself. Returns the new
// counter value for the action type.
func (l *Ledger) RecordAction(caller, agent common.Address, actionType common.ActionType, amount *big.Int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(caller, agent); err != nil {
		return nil, err
	}
	snapshot := l.journal.length()
	newCount, ev, err := l.applyAction(caller, agent, actionType, amount)
	if err != nil {
		l.journal.revert(l, snapshot)
		return nil, err
	}
	if err := l.commit(); err != nil {
		l.journal.revert(l, snapshot)
		return nil, err
	}
	l.publish(ev)
	return newCount, nil
}

// RecordActionsBatch applies a sequence of action credits for one agent as a
// single all-or-nothing unit. A zero amount anywhere rejects the whole batch.
// An empty batch is a legal no-op returning zero: no state change, no event.
// Returns the total amount added.
func (l *Ledger) RecordActionsBatch(caller, agent common.Address, actionTypes []common.ActionType, amounts []*big.Int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(actionTypes) != len(amounts) {
		return nil, ErrArrayLengthMismatch
	}
	if err := l.authorize(caller, agent); err != nil {
		return nil, err
	}
	totalAdded := new(big.Int)
	if len(actionTypes) == 0 {
		return totalAdded, nil
	}
	var (
		snapshot = l.journal.length()
		events   = make([]interface{}, 0, len(actionTypes))
	)
	for i, actionType := range actionTypes {
		_, ev, err := l.applyAction(caller, agent, actionType, amounts[i])
		if err != nil {
			// One bad item poisons the batch: unwind every earlier
			// increment before reporting.
			l.journal.revert(l, snapshot)
			return nil, err
		}
		events = append(events, ev)
		totalAdded.Add(totalAdded, amounts[i])
	}
	if err := l.commit(); err != nil {
		l.journal.revert(l, snapshot)
		return nil, err
	}
	l.publish(events...)
	return totalAdded, nil
}

// RecordVerifiedAction credits one action to whichever identity signed the
// intent, regardless of who submits the call. The recovered signer must match
// the configured main signer and the nonce must be fresh. Nonce consumption
// and the credit are one atomic journaled unit: a failure in either leaves
// neither applied.
func (l *Ledger) RecordVerifiedAction(actionID uint8, nonce common.Hash, timestamp uint64, sig []byte) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	intent := &verify.ActionIntent{ActionID: actionID, Nonce: nonce, Timestamp: timestamp}
	signer, err := l.verifier.RecoverSigner(intent, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	// Recovery never fails on a tampered payload, it just yields an
	// unrelated identity. The comparison below is the actual authentication.
	if signer != l.mainSigner || signer.IsZero() {
		return nil, ErrInvalidSignature
	}
	snapshot := l.journal.length()
	if err := l.nonces.Consume(nonce); err != nil {
		return nil, err
	}
	l.journal.append(nonceConsumedChange{nonce: nonce})

	newCount, ev, err := l.applyAction(signer, signer, common.ActionTypeFromID(actionID), common.Big1)
	if err != nil {
		l.journal.revert(l, snapshot)
		return nil, err
	}
	if err := l.commit(); err != nil {
		l.journal.revert(l, snapshot)
		return nil, err
	}
	l.publish(ev)
	return newCount, nil
}

// SetAgentStatus overwrites the agent's active flag, independent of its
// counters. An agent may deliberately mark itself inactive for scheduled
// downtime and be reactivated later. The caller must be the owner or the
// agent itself.
func (l *Ledger) SetAgentStatus(caller, agent common.Address, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.authorize(caller, agent); err != nil {
		return err
	}
	snapshot := l.journal.length()
	rec := l.getOrCreateRecord(agent)
	l.journal.append(activeChange{agent: &agent, prev: rec.Active})
	rec.Active = active

	if err := l.commit(); err != nil {
		l.journal.revert(l, snapshot)
		return err
	}
	l.publish(AgentStatusChangedEvent{Recorder: caller, Agent: agent, Active: active})
	return nil
}

// TransferOwnership hands the controller role to a new identity. Owner only.
func (l *Ledger) TransferOwnership(caller, newOwner common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrNotOwner
	}
	if newOwner.IsZero() {
		return ErrZeroAddress
	}
	prev := l.owner
	l.owner = newOwner
	if err := l.db.Put(metaOwnerKey, newOwner.Bytes()); err != nil {
		l.owner = prev
		return err
	}
	l.publish(OwnershipTransferredEvent{PreviousOwner: prev, NewOwner: newOwner})
	return nil
}

// ChangeMainSigner replaces the identity expected to sign relayed intents.
// Owner only.
func (l *Ledger) ChangeMainSigner(caller, newSigner common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return ErrNotOwner
	}
	if newSigner.IsZero() {
		return ErrZeroAddress
	}
	prev := l.mainSigner
	l.mainSigner = newSigner
	if err := l.db.Put(metaSignerKey, newSigner.Bytes()); err != nil {
		l.mainSigner = prev
		return err
	}
	l.publish(MainSignerChangedEvent{PreviousSigner: prev, NewSigner: newSigner})
	return nil
}

// TotalActions returns the agent's aggregate action count.
func (l *Ledger) TotalActions(agent common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.peekRecord(agent).Total)
}

// ActionCount returns the agent's counter for one action type.
func (l *Ledger) ActionCount(agent common.Address, actionType common.ActionType) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.peekRecord(agent).Count(actionType))
}

// LastActionTimestamp returns the unix time of the agent's most recent
// successful write, zero if the agent never acted.
func (l *Ledger) LastActionTimestamp(agent common.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.peekRecord(agent).LastActionAt
}

// IsAgentActive returns the agent's active flag.
func (l *Ledger) IsAgentActive(agent common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.peekRecord(agent).Active
}

// Snapshot packages the agent's current state into the fixed-shape sequence
// the activity evaluator consumes: [total, lastActionAt, active].
func (l *Ledger) Snapshot(agent common.Address) []*big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec := l.peekRecord(agent)
	activeFlag := new(big.Int)
	if rec.Active {
		activeFlag.SetUint64(1)
	}
	return []*big.Int{
		new(big.Int).Set(rec.Total),
		new(big.Int).SetUint64(rec.LastActionAt),
		activeFlag,
	}
}

// authorize implements the self-or-owner policy shared by all direct writes.
func (l *Ledger) authorize(caller, agent common.Address) error {
	if agent.IsZero() {
		return ErrZeroAddress
	}
	if caller != l.owner && caller != agent {
		return ErrNotAuthorized
	}
	return nil
}

// applyAction performs one journaled counter update. The caller holds the
// write lock and is responsible for reverting on error and committing on
// success.
func (l *Ledger) applyAction(recorder, agent common.Address, actionType common.ActionType, amount *big.Int) (*big.Int, interface{}, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, ErrZeroAmount
	}
	rec := l.getOrCreateRecord(agent)

	prevCount, existed := rec.Counters[actionType]
	var prev *big.Int
	if existed {
		prev = prevCount
	}
	l.journal.append(counterChange{agent: &agent, actionType: actionType, prev: prev})
	newCount := new(big.Int).Add(rec.Count(actionType), amount)
	rec.Counters[actionType] = newCount

	l.journal.append(totalChange{agent: &agent, prev: rec.Total})
	rec.Total = new(big.Int).Add(rec.Total, amount)

	l.journal.append(lastActionChange{agent: &agent, prev: rec.LastActionAt})
	rec.LastActionAt = l.now()

	l.journal.append(activeChange{agent: &agent, prev: rec.Active})
	rec.Active = true

	ev := ActionRecordedEvent{
		Recorder:   recorder,
		Agent:      agent,
		ActionType: actionType,
		Amount:     new(big.Int).Set(amount),
		NewCount:   new(big.Int).Set(newCount),
		NewTotal:   new(big.Int).Set(rec.Total),
	}
	return newCount, ev, nil
}

// getOrCreateRecord returns the live record for the agent, loading it from
// the store on first touch or creating a zero-valued one for a previously
// unseen key. Callers hold the write lock.
func (l *Ledger) getOrCreateRecord(agent common.Address) *AgentRecord {
	if rec, ok := l.records[agent]; ok {
		return rec
	}
	rec := l.loadRecord(agent)
	l.records[agent] = rec
	return rec
}

// peekRecord returns the live record if present, otherwise a transient copy
// loaded from the store. It never mutates the record cache, so read accessors
// can share the read lock.
func (l *Ledger) peekRecord(agent common.Address) *AgentRecord {
	if rec, ok := l.records[agent]; ok {
		return rec
	}
	return l.loadRecord(agent)
}

func (l *Ledger) loadRecord(agent common.Address) *AgentRecord {
	rec := newAgentRecord()
	if data, err := l.db.Get(recordKey(agent)); err == nil {
		if err := rec.UnmarshalBinary(data); err != nil {
			l.log.Error("Corrupt agent record, starting fresh", "agent", agent, "err", err)
			return newAgentRecord()
		}
	}
	return rec
}

// commit flushes every record dirtied by the current journal, plus any newly
// consumed nonces, in one atomic store batch, then clears the journal.
func (l *Ledger) commit() error {
	batch := l.db.NewBatch()
	for agent := range l.journal.dirties {
		data, err := l.records[agent].MarshalBinary()
		if err != nil {
			return err
		}
		if err := batch.Put(recordKey(agent), data); err != nil {
			return err
		}
	}
	if err := l.nonces.Flush(batch); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	l.nonces.Commit()
	l.journal.reset()
	return nil
}

// publish sends events after the state change is durable.
func (l *Ledger) publish(events ...interface{}) {
	for _, ev := range events {
		l.feed.Send(ev)
		switch e := ev.(type) {
		case ActionRecordedEvent:
			l.log.Debug("Action recorded", "agent", e.Agent, "type", e.ActionType, "amount", e.Amount, "total", e.NewTotal)
		case AgentStatusChangedEvent:
			l.log.Info("Agent status changed", "agent", e.Agent, "active", e.Active)
		case OwnershipTransferredEvent:
			l.log.Info("Ownership transferred", "previous", e.PreviousOwner, "new", e.NewOwner)
		case MainSignerChangedEvent:
			l.log.Info("Main signer changed", "previous", e.PreviousSigner, "new", e.NewSigner)
		}
	}
}
