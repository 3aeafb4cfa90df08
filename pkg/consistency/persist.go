package consistency

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var counterBucket = []byte("_counters")

// Load restores a Map from a bbolt file at path, one bucket per rule
// name plus a reserved _counters bucket for token ordinals. A missing
// file yields an empty, fresh Map — this is the "restored at run start
// if present" half of the persistence contract.
func Load(path string) (*Map, error) {
	m := New()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m, nil
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("consistency: opening %s: %w", path, err)
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			ruleName := string(name)
			if ruleName == string(counterBucket) {
				return b.ForEach(func(k, v []byte) error {
					if len(v) != 8 {
						return fmt.Errorf("corrupt counter for rule %q", k)
					}
					s := m.shardFor(string(k))
					s.counters[string(k)] = binary.BigEndian.Uint64(v)
					return nil
				})
			}
			return b.ForEach(func(k, v []byte) error {
				return m.Put(ruleName, string(k), string(v))
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("consistency: reading %s: %w", path, err)
	}

	return m, nil
}

// Save persists the map to path atomically: it writes a complete bbolt
// database to a sibling temp file, then renames it over path so a
// concurrent reader never observes a partial file.
func (m *Map) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".consistency-*.tmp")
	if err != nil {
		return fmt.Errorf("consistency: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath) // no-op once renamed

	db, err := bolt.Open(tmpPath, 0o600, nil)
	if err != nil {
		return fmt.Errorf("consistency: opening temp db %s: %w", tmpPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		cb, err := tx.CreateBucketIfNotExists(counterBucket)
		if err != nil {
			return err
		}
		for _, s := range m.shards {
			s.mu.Lock()
			for ruleName, values := range s.values {
				b, err := tx.CreateBucketIfNotExists([]byte(ruleName))
				if err != nil {
					s.mu.Unlock()
					return err
				}
				for original, anonymized := range values {
					if err := b.Put([]byte(original), []byte(anonymized)); err != nil {
						s.mu.Unlock()
						return err
					}
				}
			}
			for ruleName, counter := range s.counters {
				var buf [8]byte
				binary.BigEndian.PutUint64(buf[:], counter)
				if err := cb.Put([]byte(ruleName), buf[:]); err != nil {
					s.mu.Unlock()
					return err
				}
			}
			s.mu.Unlock()
		}
		return nil
	})
	closeErr := db.Close()
	if err != nil {
		return fmt.Errorf("consistency: writing temp db: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("consistency: closing temp db: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("consistency: renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
