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

package activity

import (
	"math/big"
	"testing"

	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOwner = common.HexToAddress("0x0000000000000000000000000000000000000abc")

// halfRatio is 0.5 actions per second in 18 decimal fixed point.
func halfRatio() *big.Int {
	return new(big.Int).Div(params.RatioPrecision, big.NewInt(2))
}

func newTestEvaluator(t *testing.T, cfg Config) *Evaluator {
	t.Helper()
	if cfg.Owner.IsZero() {
		cfg.Owner = testOwner
	}
	if cfg.LivenessRatio == nil {
		cfg.LivenessRatio = halfRatio()
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

// snap builds a 3-field snapshot [total, lastActionAt, active].
func snap(total int64, lastActionAt uint64, active bool) []*big.Int {
	activeFlag := new(big.Int)
	if active {
		activeFlag.SetUint64(1)
	}
	return []*big.Int{big.NewInt(total), new(big.Int).SetUint64(lastActionAt), activeFlag}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Owner: testOwner})
	require.Error(t, err, "nil ratio must fail loudly at setup")

	_, err = New(Config{Owner: testOwner, LivenessRatio: big.NewInt(0)})
	require.Error(t, err)

	_, err = New(Config{Owner: testOwner, LivenessRatio: big.NewInt(-1)})
	require.Error(t, err)
}

func TestEvaluateRatioBoundary(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	// 4 actions over 12 seconds is ~0.333 actions/sec: below 0.5, fail.
	assert.False(t, e.EvaluateRatio(snap(4, 50, true), snap(0, 10, true), 12))

	// 6 actions over 12 seconds is exactly 0.5: the boundary is inclusive.
	assert.True(t, e.EvaluateRatio(snap(6, 50, true), snap(0, 10, true), 12))

	// 7 actions over 12 seconds passes comfortably.
	assert.True(t, e.EvaluateRatio(snap(7, 50, true), snap(0, 10, true), 12))
}

func TestEvaluateRatioInactiveAgentAlwaysFails(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	// Overwhelming throughput cannot save an inactive agent.
	assert.False(t, e.EvaluateRatio(snap(1_000_000, 50, false), snap(0, 10, true), 12))
}

func TestEvaluateRatioZeroElapsed(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	assert.False(t, e.EvaluateRatio(snap(100, 50, true), snap(0, 10, true), 0))
}

func TestEvaluateRatioThirtyDayCap(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	// A delta that would pass easily still fails at exactly the cap.
	huge := int64(10_000_000)
	assert.False(t, e.EvaluateRatio(snap(huge, 50, true), snap(0, 10, true), params.MaxCheckpointGap))
	assert.False(t, e.EvaluateRatio(snap(huge, 50, true), snap(0, 10, true), params.MaxCheckpointGap+1))
	assert.True(t, e.EvaluateRatio(snap(huge, 50, true), snap(0, 10, true), params.MaxCheckpointGap-1))
}

func TestEvaluateRatioNonIncreasingTotal(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	// Equal totals mean no qualifying activity.
	assert.False(t, e.EvaluateRatio(snap(5, 50, true), snap(5, 10, true), 12))

	// A decreasing total signals swapped snapshot order.
	assert.False(t, e.EvaluateRatio(snap(3, 50, true), snap(5, 10, true), 12))
}

func TestEvaluateRatioSnapshotShape(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	good := snap(6, 50, true)

	// Length mismatch fails quietly, never errors.
	short := []*big.Int{big.NewInt(6), big.NewInt(1)}
	assert.False(t, e.EvaluateRatio(short, snap(0, 10, true), 12))
	assert.False(t, e.EvaluateRatio(good, short, 12))
	assert.False(t, e.EvaluateRatio(short, short, 12))

	var empty []*big.Int
	assert.False(t, e.EvaluateRatio(empty, empty, 12))
}

func TestEvaluateRatioMinActionsFloor(t *testing.T) {
	e := newTestEvaluator(t, Config{
		MinActionsPerPeriod: big.NewInt(10),
	})

	// Ratio passes (6/12 = 0.5) but the absolute floor of 10 does not.
	assert.False(t, e.EvaluateRatio(snap(6, 50, true), snap(0, 10, true), 12))

	// 10 actions over 12 seconds clears both the floor and the ratio.
	assert.True(t, e.EvaluateRatio(snap(10, 50, true), snap(0, 10, true), 12))
}

func TestEvaluateRatioMaxInactivity(t *testing.T) {
	e := newTestEvaluator(t, Config{MaxInactivity: 100})
	e.now = func() uint64 { return 1000 }

	// Last action 50 seconds ago: within bounds.
	assert.True(t, e.EvaluateRatio(snap(6, 950, true), snap(0, 10, true), 12))

	// Exactly at the bound still passes (strictly-greater comparison).
	assert.True(t, e.EvaluateRatio(snap(6, 900, true), snap(0, 10, true), 12))

	// One second over the bound fails.
	assert.False(t, e.EvaluateRatio(snap(6, 899, true), snap(0, 10, true), 12))

	// An agent that never acted fails whenever the bound is enabled.
	assert.False(t, e.EvaluateRatio(snap(6, 0, true), snap(0, 0, true), 12))
}

func TestEvaluateRatioInactivityDisabled(t *testing.T) {
	e := newTestEvaluator(t, Config{})
	e.now = func() uint64 { return 1_000_000 }

	// MaxInactivity of zero disables the check entirely, even for an agent
	// with lastActionAt == 0.
	assert.True(t, e.EvaluateRatio(snap(6, 0, true), snap(0, 0, true), 12))
}

func TestEvaluateRatioDeterminism(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	current, previous := snap(6, 50, true), snap(0, 10, true)
	first := e.EvaluateRatio(current, previous, 12)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, e.EvaluateRatio(current, previous, 12))
	}
}

func TestRequiredActions(t *testing.T) {
	e := newTestEvaluator(t, Config{})

	// 0.5 actions/sec over an hour needs 1800 actions.
	assert.Equal(t, big.NewInt(1800), e.RequiredActions(3600))

	// Truncation: 0.5 actions/sec over 3 seconds is 1.5, truncated to 1.
	assert.Equal(t, big.NewInt(1), e.RequiredActions(3))

	assert.Equal(t, big.NewInt(0), e.RequiredActions(0))
}

func TestChangeLivenessRatio(t *testing.T) {
	e := newTestEvaluator(t, Config{})
	sub := e.SubscribeEvents(1)

	other := common.HexToAddress("0x01")
	require.ErrorIs(t, e.ChangeLivenessRatio(other, big.NewInt(1)), ErrNotOwner)
	require.ErrorIs(t, e.ChangeLivenessRatio(testOwner, big.NewInt(0)), ErrZeroValue)
	require.ErrorIs(t, e.ChangeLivenessRatio(testOwner, nil), ErrZeroValue)

	newRatio := new(big.Int).Set(params.RatioPrecision) // 1 action/sec
	require.NoError(t, e.ChangeLivenessRatio(testOwner, newRatio))
	require.Equal(t, newRatio, e.LivenessRatio())

	ev := (<-sub.C).(RatioChangedEvent)
	assert.Equal(t, halfRatio(), ev.OldRatio)
	assert.Equal(t, newRatio, ev.NewRatio)

	// 6/12 = 0.5 actions/sec no longer clears the raised threshold.
	assert.False(t, e.EvaluateRatio(snap(6, 50, true), snap(0, 10, true), 12))
}

func TestSnapshotProjection(t *testing.T) {
	r := stubReader{total: big.NewInt(42), last: 1234, active: true}
	s := Snapshot(r, common.HexToAddress("0x02"))

	require.Len(t, s, SnapshotFields)
	assert.Equal(t, big.NewInt(42), s[snapshotTotal])
	assert.Equal(t, big.NewInt(1234), s[snapshotLastAction])
	assert.Equal(t, big.NewInt(1), s[snapshotActive])

	r.active = false
	s = Snapshot(r, common.HexToAddress("0x02"))
	assert.Equal(t, big.NewInt(0), s[snapshotActive])
}

type stubReader struct {
	total  *big.Int
	last   uint64
	active bool
}

func (s stubReader) TotalActions(common.Address) *big.Int      { return s.total }
func (s stubReader) LastActionTimestamp(common.Address) uint64 { return s.last }
func (s stubReader) IsAgentActive(common.Address) bool         { return s.active }
