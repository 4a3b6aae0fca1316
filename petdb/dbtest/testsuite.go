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

// Package dbtest provides a conformance suite that every petdb backend must
// pass.
package dbtest

import (
	"testing"

	"github.com/petstake/go-petstake/petdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSuite runs the key-value conformance checks against a fresh
// database produced by the given constructor.
func TestDatabaseSuite(t *testing.T, New func() petdb.Database) {
	t.Run("KeyValueOperations", func(t *testing.T) {
		db := New()
		defer db.Close()

		key := []byte("foo")

		has, err := db.Has(key)
		require.NoError(t, err)
		assert.False(t, has, "fresh database should not have key")

		value := []byte("hello world")
		require.NoError(t, db.Put(key, value))

		has, err = db.Has(key)
		require.NoError(t, err)
		assert.True(t, has)

		got, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		require.NoError(t, db.Delete(key))

		has, err = db.Has(key)
		require.NoError(t, err)
		assert.False(t, has, "deleted key should be gone")

		_, err = db.Get(key)
		assert.Error(t, err, "reading a deleted key should fail")
	})

	t.Run("Batch", func(t *testing.T) {
		db := New()
		defer db.Close()

		b := db.NewBatch()
		for _, k := range []string{"1", "2", "3", "4"} {
			require.NoError(t, b.Put([]byte(k), nil))
		}
		// Nothing lands before Write.
		has, err := db.Has([]byte("1"))
		require.NoError(t, err)
		assert.False(t, has, "batch writes must not be visible before Write")

		require.NoError(t, b.Write())
		assert.Equal(t, []string{"1", "2", "3", "4"}, iterateKeys(db.NewIterator(nil)))

		b.Reset()
		require.NoError(t, b.Delete([]byte("3")))
		require.NoError(t, b.Put([]byte("5"), nil))
		require.NoError(t, b.Put([]byte("6"), nil))
		require.NoError(t, b.Write())
		assert.Equal(t, []string{"1", "2", "4", "5", "6"}, iterateKeys(db.NewIterator(nil)))
	})

	t.Run("Iterator", func(t *testing.T) {
		db := New()
		defer db.Close()

		entries := map[string]string{
			"petstake-agent-1": "a",
			"petstake-agent-2": "b",
			"petstake-nonce-1": "c",
			"other":            "d",
		}
		for k, v := range entries {
			require.NoError(t, db.Put([]byte(k), []byte(v)))
		}

		assert.Equal(t, []string{
			"other", "petstake-agent-1", "petstake-agent-2", "petstake-nonce-1",
		}, iterateKeys(db.NewIterator(nil)), "nil prefix iterates everything in key order")

		assert.Equal(t, []string{
			"petstake-agent-1", "petstake-agent-2",
		}, iterateKeys(db.NewIterator([]byte("petstake-agent-"))))

		assert.Empty(t, iterateKeys(db.NewIterator([]byte("missing-"))))
	})

	t.Run("IteratorValues", func(t *testing.T) {
		db := New()
		defer db.Close()

		require.NoError(t, db.Put([]byte("k"), []byte("v")))

		it := db.NewIterator(nil)
		require.True(t, it.Next())
		assert.Equal(t, []byte("k"), it.Key())
		assert.Equal(t, []byte("v"), it.Value())
		assert.False(t, it.Next())
		require.NoError(t, it.Error())
		it.Release()
	})

	t.Run("OverwriteValue", func(t *testing.T) {
		db := New()
		defer db.Close()

		require.NoError(t, db.Put([]byte("k"), []byte("first")))
		require.NoError(t, db.Put([]byte("k"), []byte("second")))

		got, err := db.Get([]byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})
}

func iterateKeys(it petdb.Iterator) []string {
	keys := []string{}
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Release()
	return keys
}
