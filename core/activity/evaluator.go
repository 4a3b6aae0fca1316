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

// Package activity decides, from two checkpoint snapshots of the ledger, whether
// an agent's action throughput met the configured liveness ratio.
package activity

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/event"
	"github.com/petstake/go-petstake/params"
)

// Snapshot field indices. A snapshot is the fixed-shape projection
// [total, lastActionAt, active] read from the ledger at one instant.
const (
	snapshotTotal      = 0
	snapshotLastAction = 1
	snapshotActive     = 2

	// SnapshotFields is the agreed-upon snapshot arity. Shorter or
	// mismatched snapshots never qualify.
	SnapshotFields = 3
)

var (
	// ErrZeroValue is returned when an updated liveness ratio is zero.
	ErrZeroValue = errors.New("zero value")

	// ErrNotOwner is returned when a non-owner attempts a ratio update.
	ErrNotOwner = errors.New("caller is not the owner")
)

// LedgerReader is the read-only ledger surface the evaluator snapshots from.
// It is the package's only coupling to the ledger.
type LedgerReader interface {
	TotalActions(agent common.Address) *big.Int
	LastActionTimestamp(agent common.Address) uint64
	IsAgentActive(agent common.Address) bool
}

// Config carries the evaluator thresholds. LivenessRatio is mandatory;
// the two secondary thresholds are optional.
type Config struct {
	// Owner may update the liveness ratio after construction.
	Owner common.Address

	// LivenessRatio is the minimum sustained actions per second, fixed-point
	// with 18 decimals (params.RatioPrecision is one action per second).
	// Must be positive.
	LivenessRatio *big.Int

	// MinActionsPerPeriod is an absolute floor on the checkpoint delta,
	// independent of the ratio. Nil disables the check.
	MinActionsPerPeriod *big.Int

	// MaxInactivity is the longest tolerated gap, in seconds, between the
	// evaluation time and the agent's last action. Zero disables the check.
	MaxInactivity uint64
}

// RatioChangedEvent is published when the owner updates the liveness ratio.
type RatioChangedEvent struct {
	OldRatio *big.Int
	NewRatio *big.Int
}

// Evaluator makes stateless checkpoint-to-checkpoint pass/fail decisions.
// Aside from the owner-gated ratio update, every method is a pure function of
// its inputs, so an Evaluator is safe for concurrent use.
//
// Disqualification is deliberately quiet: a snapshot that fails any condition
// resolves to false, never to an error. "Does not currently qualify" is an
// expected outcome of a periodic check; only misconfiguration fails loudly,
// at construction.
type Evaluator struct {
	mu sync.RWMutex

	owner         common.Address
	livenessRatio *big.Int
	minActions    *big.Int
	maxInactivity uint64

	feed event.Feed
	log  log15.Logger
	now  func() uint64 // injectable clock for tests
}

// New validates the configuration and returns an evaluator. Bad config is a
// setup-time bug and fails loudly here, never during evaluation.
func New(cfg Config) (*Evaluator, error) {
	if cfg.LivenessRatio == nil || cfg.LivenessRatio.Sign() <= 0 {
		return nil, fmt.Errorf("liveness ratio must be positive: %w", ErrZeroValue)
	}
	if cfg.MinActionsPerPeriod != nil && cfg.MinActionsPerPeriod.Sign() < 0 {
		return nil, errors.New("negative min actions per period")
	}
	e := &Evaluator{
		owner:         cfg.Owner,
		livenessRatio: new(big.Int).Set(cfg.LivenessRatio),
		maxInactivity: cfg.MaxInactivity,
		log:           log15.New("module", "activity"),
		now:           func() uint64 { return uint64(time.Now().Unix()) },
	}
	if cfg.MinActionsPerPeriod != nil {
		e.minActions = new(big.Int).Set(cfg.MinActionsPerPeriod)
	}
	return e, nil
}

// LivenessRatio returns the current ratio threshold.
func (e *Evaluator) LivenessRatio() *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return new(big.Int).Set(e.livenessRatio)
}

// SubscribeEvents registers an event subscriber with the given buffer size.
func (e *Evaluator) SubscribeEvents(buffer int) *event.Subscription {
	return e.feed.Subscribe(buffer)
}

// Snapshot packages an agent's current ledger state into the fixed-shape
// sequence EvaluateRatio consumes. It is a read-only projection.
func Snapshot(r LedgerReader, agent common.Address) []*big.Int {
	active := new(big.Int)
	if r.IsAgentActive(agent) {
		active.SetUint64(1)
	}
	return []*big.Int{
		r.TotalActions(agent),
		new(big.Int).SetUint64(r.LastActionTimestamp(agent)),
		active,
	}
}

// EvaluateRatio reports whether the action throughput between two snapshots
// satisfied the liveness ratio over the elapsed window. Every disqualifying
// condition resolves to false, in a fixed order:
//
//  1. mismatched or under-length snapshots
//  2. inactive agent
//  3. zero elapsed time (degenerate same-instant checkpoints)
//  4. implausibly long window (>= 30 days)
//  5. non-increasing total (also catches swapped snapshot order)
//  6. delta below the optional absolute floor
//  7. fixed-point ratio strictly below the threshold (equality passes)
//  8. optional inactivity bound exceeded, or agent never acted
func (e *Evaluator) EvaluateRatio(current, previous []*big.Int, elapsedSeconds uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(current) != len(previous) || len(current) < SnapshotFields {
		return false
	}
	if current[snapshotActive] == nil || current[snapshotActive].Sign() == 0 {
		return false
	}
	if elapsedSeconds == 0 {
		return false
	}
	if elapsedSeconds >= params.MaxCheckpointGap {
		return false
	}
	if current[snapshotTotal] == nil || previous[snapshotTotal] == nil {
		return false
	}
	if current[snapshotTotal].Cmp(previous[snapshotTotal]) <= 0 {
		return false
	}
	diff := new(big.Int).Sub(current[snapshotTotal], previous[snapshotTotal])
	if e.minActions != nil && diff.Cmp(e.minActions) < 0 {
		return false
	}
	// Truncating division biases against false positives: a ratio a hair
	// under the threshold rounds down and fails.
	ratio := new(big.Int).Mul(diff, params.RatioPrecision)
	ratio.Div(ratio, new(big.Int).SetUint64(elapsedSeconds))
	if ratio.Cmp(e.livenessRatio) < 0 {
		return false
	}
	if e.maxInactivity > 0 {
		if current[snapshotLastAction] == nil {
			return false
		}
		last := current[snapshotLastAction].Uint64()
		if last == 0 {
			return false
		}
		if now := e.now(); now > last && now-last > e.maxInactivity {
			return false
		}
	}
	return true
}

// RequiredActions returns the minimum action count needed to sustain the
// liveness ratio over a period of the given length, truncated toward zero.
func (e *Evaluator) RequiredActions(periodSeconds uint64) *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	required := new(big.Int).Mul(e.livenessRatio, new(big.Int).SetUint64(periodSeconds))
	return required.Div(required, params.RatioPrecision)
}

// ChangeLivenessRatio updates the ratio threshold. Owner only; a zero ratio
// is rejected. Publishes a RatioChangedEvent carrying both values.
func (e *Evaluator) ChangeLivenessRatio(caller common.Address, newRatio *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrNotOwner
	}
	if newRatio == nil || newRatio.Sign() <= 0 {
		return ErrZeroValue
	}
	old := e.livenessRatio
	e.livenessRatio = new(big.Int).Set(newRatio)
	e.log.Info("Liveness ratio changed", "old", old, "new", newRatio)
	e.feed.Send(RatioChangedEvent{OldRatio: old, NewRatio: new(big.Int).Set(newRatio)})
	return nil
}
