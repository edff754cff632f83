/*
 * Copyright (C) 2025 OpenVCI community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package issuer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/openvci/issuer-node/issuer/log"
)

// ErrNotFound is returned when the requested key is absent or expired.
var ErrNotFound = errors.New("not found")

var sessionStorePruneInterval = 10 * time.Minute

type expiringEntry struct {
	// Value stores the actual value as JSON
	Value  string
	Expiry time.Time
}

// SessionDatabase is an in-memory KV database holding the transient state of
// issuance flows: offers, pre-authorized codes and access tokens. All entries
// carry a TTL and are removed automatically.
type SessionDatabase struct {
	cancel   context.CancelFunc
	ctx      context.Context
	mux      sync.RWMutex
	routines sync.WaitGroup
	clock    clock.Clock
	entries  map[string]expiringEntry
}

// NewSessionDatabase creates a new in-memory session database using the given
// clock for expiry decisions.
func NewSessionDatabase(cl clock.Clock) *SessionDatabase {
	result := &SessionDatabase{
		clock:   cl,
		entries: map[string]expiringEntry{},
	}
	result.ctx, result.cancel = context.WithCancel(context.Background())
	result.startPruning(sessionStorePruneInterval)
	return result
}

// GetStore returns a SessionStore scoped to the given key prefixes, storing
// entries with the given TTL.
func (db *SessionDatabase) GetStore(ttl time.Duration, keys ...string) SessionStore {
	return SessionStore{
		ttl:      ttl,
		prefixes: keys,
		db:       db,
	}
}

// Close stops the background pruner and waits for it to finish.
func (db *SessionDatabase) Close() {
	db.cancel()
	db.routines.Wait()
}

func (db *SessionDatabase) startPruning(interval time.Duration) {
	ticker := db.clock.Ticker(interval)
	db.routines.Add(1)
	go func(ctx context.Context) {
		defer db.routines.Done()
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				valsPruned := db.prune()
				if valsPruned > 0 {
					log.Logger().Debugf("Pruned %d expired session variables", valsPruned)
				}
			}
		}
	}(db.ctx)
}

func (db *SessionDatabase) prune() int {
	db.mux.Lock()
	defer db.mux.Unlock()

	moment := db.clock.Now()

	var count int
	for key, entry := range db.entries {
		if entry.Expiry.Before(moment) {
			count++
			delete(db.entries, key)
		}
	}

	return count
}

// SessionStore is a prefixed view on a SessionDatabase.
type SessionStore struct {
	ttl      time.Duration
	prefixes []string
	db       *SessionDatabase
}

// Put stores the value under the given key, JSON-encoded, with the store's TTL.
func (s SessionStore) Put(key string, value interface{}) error {
	s.db.mux.Lock()
	defer s.db.mux.Unlock()

	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.db.entries[s.getFullKey(key)] = expiringEntry{
		Value:  string(bytes),
		Expiry: s.db.clock.Now().Add(s.ttl),
	}
	return nil
}

// Get reads the value stored under the given key into target.
// Returns ErrNotFound when the key is absent or expired.
func (s SessionStore) Get(key string, target interface{}) error {
	s.db.mux.Lock()
	defer s.db.mux.Unlock()

	entry, err := s.get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(entry.Value), target)
}

// GetAndDelete atomically reads and removes the value stored under the given
// key. Used for one-time artifacts (offers, pre-authorized codes): a second
// read of the same key fails with ErrNotFound.
func (s SessionStore) GetAndDelete(key string, target interface{}) error {
	s.db.mux.Lock()
	defer s.db.mux.Unlock()

	entry, err := s.get(key)
	if err != nil {
		return err
	}
	delete(s.db.entries, s.getFullKey(key))
	return json.Unmarshal([]byte(entry.Value), target)
}

// Delete removes the value stored under the given key, if present.
func (s SessionStore) Delete(key string) error {
	s.db.mux.Lock()
	defer s.db.mux.Unlock()

	delete(s.db.entries, s.getFullKey(key))
	return nil
}

// Exists returns whether a live entry exists for the given key.
func (s SessionStore) Exists(key string) bool {
	s.db.mux.Lock()
	defer s.db.mux.Unlock()

	_, err := s.get(key)
	return err == nil
}

// get requires the caller to hold the database lock.
func (s SessionStore) get(key string) (expiringEntry, error) {
	fullKey := s.getFullKey(key)
	entry, ok := s.db.entries[fullKey]
	if !ok {
		return expiringEntry{}, ErrNotFound
	}
	if entry.Expiry.Before(s.db.clock.Now()) {
		delete(s.db.entries, fullKey)
		return expiringEntry{}, ErrNotFound
	}
	return entry, nil
}

func (s SessionStore) getFullKey(key string) string {
	return strings.Join(append(s.prefixes, key), "/")
}
