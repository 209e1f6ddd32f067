// Zaparoo Countdown
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Countdown.
//
// Zaparoo Countdown is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Countdown is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Countdown.  If not, see <http://www.gnu.org/licenses/>.

// Package statedb stores timer snapshots and used-video sets in a bbolt
// file so sessions survive a restart.
package statedb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ZaparooProject/zaparoo-countdown/pkg/database"
	"github.com/ZaparooProject/zaparoo-countdown/pkg/timer"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketSessions = "sessions"
	BucketUsed     = "used"
	KeyTimer       = "timer"
	KeyMeta        = "meta"

	openTimeout = time.Second
)

// ErrInvalidSession is returned for an empty session ID.
var ErrInvalidSession = errors.New("invalid session id")

type StateDB struct {
	bdb  *bolt.DB
	path string
}

// Open opens or creates the state file and its root bucket.
func Open(path string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketSessions))
		if err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", BucketSessions, err)
		}
		return nil
	})
	if err != nil {
		if closeErr := bdb.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing state database")
		}
		return nil, err
	}

	log.Debug().Str("path", path).Msg("opened state database")
	return &StateDB{bdb: bdb, path: path}, nil
}

func (db *StateDB) Close() error {
	if db.bdb == nil {
		return nil
	}
	if err := db.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close state database: %w", err)
	}
	return nil
}

func (db *StateDB) GetDBPath() string {
	return db.path
}

// sessionBucket returns the session's bucket, or nil if it doesn't exist
// and create is false.
func sessionBucket(tx *bolt.Tx, session string, create bool) (*bolt.Bucket, error) {
	if session == "" {
		return nil, ErrInvalidSession
	}
	root := tx.Bucket([]byte(BucketSessions))
	if root == nil {
		return nil, fmt.Errorf("bucket %q does not exist", BucketSessions)
	}
	if !create {
		return root.Bucket([]byte(session)), nil
	}
	b, err := root.CreateBucketIfNotExists([]byte(session))
	if err != nil {
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}
	return b, nil
}

func (db *StateDB) SaveTimer(session string, state timer.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal timer state: %w", err)
	}
	err = db.bdb.Update(func(tx *bolt.Tx) error {
		b, err := sessionBucket(tx, session, true)
		if err != nil {
			return err
		}
		return b.Put([]byte(KeyTimer), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save timer: %w", err)
	}
	return nil
}

func (db *StateDB) LoadTimer(session string) (timer.State, bool, error) {
	var (
		state timer.State
		found bool
	)
	err := db.bdb.View(func(tx *bolt.Tx) error {
		b, err := sessionBucket(tx, session, false)
		if err != nil || b == nil {
			return err
		}
		data := b.Get([]byte(KeyTimer))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("failed to unmarshal timer state: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return timer.State{}, false, fmt.Errorf("failed to load timer: %w", err)
	}
	return state, found, nil
}

// Used videos are keyed by path. The value holds the bucket sequence number
// and the time the video was marked, so the set can be listed in order.
func encodeUsed(seq uint64, added time.Time) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], seq)
	binary.BigEndian.PutUint64(buf[8:], uint64(added.UnixNano())) //nolint:gosec // timestamps are positive
	return buf
}

func decodeUsed(v []byte) (seq uint64, added time.Time, err error) {
	if len(v) != 16 {
		return 0, time.Time{}, fmt.Errorf("invalid used video record length %d", len(v))
	}
	seq = binary.BigEndian.Uint64(v[:8])
	added = time.Unix(0, int64(binary.BigEndian.Uint64(v[8:]))) //nolint:gosec // written by encodeUsed
	return seq, added, nil
}

func (db *StateDB) AddUsedVideo(session, videoPath string, added time.Time) (bool, error) {
	if videoPath == "" {
		return false, errors.New("empty video path")
	}
	inserted := false
	err := db.bdb.Update(func(tx *bolt.Tx) error {
		sb, err := sessionBucket(tx, session, true)
		if err != nil {
			return err
		}
		b, err := sb.CreateBucketIfNotExists([]byte(BucketUsed))
		if err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", BucketUsed, err)
		}
		if b.Get([]byte(videoPath)) != nil {
			return nil
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get sequence: %w", err)
		}
		inserted = true
		return b.Put([]byte(videoPath), encodeUsed(seq, added))
	})
	if err != nil {
		return false, fmt.Errorf("failed to add used video: %w", err)
	}
	return inserted, nil
}

func (db *StateDB) GetUsedVideos(session string) ([]database.UsedVideo, error) {
	used := make([]database.UsedVideo, 0)
	err := db.bdb.View(func(tx *bolt.Tx) error {
		sb, err := sessionBucket(tx, session, false)
		if err != nil || sb == nil {
			return err
		}
		b := sb.Bucket([]byte(BucketUsed))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			seq, added, err := decodeUsed(v)
			if err != nil {
				log.Warn().Err(err).Str("path", string(k)).Msg("skipping corrupt used video record")
				return nil
			}
			used = append(used, database.UsedVideo{
				Path:  string(k),
				Seq:   seq,
				Added: added,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get used videos: %w", err)
	}
	sort.Slice(used, func(i, j int) bool {
		return used[i].Seq < used[j].Seq
	})
	return used, nil
}

func (db *StateDB) ClearUsedVideos(session string) error {
	err := db.bdb.Update(func(tx *bolt.Tx) error {
		sb, err := sessionBucket(tx, session, false)
		if err != nil || sb == nil {
			return err
		}
		if sb.Bucket([]byte(BucketUsed)) == nil {
			return nil
		}
		return sb.DeleteBucket([]byte(BucketUsed))
	})
	if err != nil {
		return fmt.Errorf("failed to clear used videos: %w", err)
	}
	return nil
}

func (db *StateDB) SaveSessionMeta(session string, meta database.SessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal session meta: %w", err)
	}
	err = db.bdb.Update(func(tx *bolt.Tx) error {
		b, err := sessionBucket(tx, session, true)
		if err != nil {
			return err
		}
		return b.Put([]byte(KeyMeta), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save session meta: %w", err)
	}
	return nil
}

func (db *StateDB) GetSessions() (map[string]database.SessionMeta, error) {
	sessions := make(map[string]database.SessionMeta)
	err := db.bdb.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(BucketSessions))
		if root == nil {
			return fmt.Errorf("bucket %q does not exist", BucketSessions)
		}
		c := root.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			// nested buckets have a nil value
			if v != nil {
				continue
			}
			var meta database.SessionMeta
			if data := root.Bucket(k).Get([]byte(KeyMeta)); data != nil {
				if err := json.Unmarshal(data, &meta); err != nil {
					log.Warn().Err(err).Str("session", string(k)).Msg("invalid session meta")
				}
			}
			sessions[string(k)] = meta
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	return sessions, nil
}

func (db *StateDB) DeleteSession(session string) error {
	err := db.bdb.Update(func(tx *bolt.Tx) error {
		sb, err := sessionBucket(tx, session, false)
		if err != nil || sb == nil {
			return err
		}
		return tx.Bucket([]byte(BucketSessions)).DeleteBucket([]byte(session))
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
