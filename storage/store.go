// Package storage persists simulation runs and their records in BadgerDB.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/emilyhoughkovacs/blok-persona-clustering/simulator"
)

// ErrNotFound reports a missing key. Callers distinguish it from real
// storage failures with errors.Is.
var ErrNotFound = errors.New("not found")

// Config controls how the result database opens.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir            string
	InMemory       bool
	SyncWrites     bool
	DisableLogging bool
	// GCInterval schedules value-log garbage collection. 0 disables it.
	GCInterval time.Duration
}

// DefaultConfig returns the standard on-disk configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		DisableLogging: true,
		GCInterval:     5 * time.Minute,
	}
}

// Store is one open result database. Construct with Open, release with
// Close. Unlike a shared singleton, every Store owns its lifetime; two
// stores must not point at the same directory.
type Store struct {
	db     *badger.DB
	cfg    Config
	mu     sync.Mutex
	gcDone chan struct{}
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	if cfg.DisableLogging {
		opts.Logger = nil
	}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database: %v", err)
	}

	s := &Store{db: db, cfg: cfg, gcDone: make(chan struct{})}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop(cfg.GCInterval)
	}
	return s, nil
}

// Close stops background maintenance and closes the database.
func (s *Store) Close() error {
	close(s.gcDone)
	return s.db.Close()
}

func (s *Store) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.gcDone:
			return
		case <-ticker.C:
			if err := s.RunGC(); err != nil && err != badger.ErrNoRewrite {
				log.Printf("storage: value log GC failed: %v", err)
			}
		}
	}
}

// RunGC runs one round of value-log garbage collection.
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// Put stores a raw key-value pair.
func (s *Store) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// Get retrieves a value by key. A missing key returns a nil value, not an
// error, so callers can probe cheaply.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var valCopy []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			valCopy = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %v", err)
	}
	return valCopy, nil
}

// Delete removes a key-value pair.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// GetByPrefix retrieves all key-value pairs with a given prefix.
func (s *Store) GetByPrefix(prefix string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			k := append([]byte{}, item.Key()...)
			err := item.Value(func(v []byte) error {
				result[string(k)] = append([]byte{}, v...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get values by prefix: %v", err)
	}
	return result, nil
}

// DeleteByPrefix removes every key with the given prefix.
func (s *Store) DeleteByPrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to collect keys for deletion: %v", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to delete key: %v", err)
			}
		}
		return nil
	})
}

// PutObject serializes an object as JSON and stores it.
func (s *Store) PutObject(key string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %v", err)
	}
	return s.Put(key, data)
}

// GetObject retrieves and deserializes an object. A missing key yields
// ErrNotFound.
func (s *Store) GetObject(key string, obj interface{}) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("key %s: %w", key, ErrNotFound)
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("failed to unmarshal object: %v", err)
	}
	return nil
}

func runKey(runID string) string {
	return fmt.Sprintf("run:%s", runID)
}

func recordKey(runID, personaID, scenarioID string) string {
	return fmt.Sprintf("record:%s:%s:%s", runID, personaID, scenarioID)
}

func recordPrefix(runID string) string {
	return fmt.Sprintf("record:%s:", runID)
}

// SaveRun persists a complete (or interrupted) run result under its id.
func (s *Store) SaveRun(res *simulator.Result) error {
	return s.PutObject(runKey(res.RunID), res)
}

// GetRun retrieves a run by id. Missing runs yield ErrNotFound.
func (s *Store) GetRun(runID string) (*simulator.Result, error) {
	var res simulator.Result
	if err := s.GetObject(runKey(runID), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListRuns returns run summaries, newest first. Records are stripped; load
// a specific run to get them.
func (s *Store) ListRuns() ([]simulator.Result, error) {
	pairs, err := s.GetByPrefix("run:")
	if err != nil {
		return nil, err
	}

	runs := make([]simulator.Result, 0, len(pairs))
	for key, data := range pairs {
		var res simulator.Result
		if err := json.Unmarshal(data, &res); err != nil {
			log.Printf("storage: skipping undecodable run %s: %v", key, err)
			continue
		}
		res.Records = nil
		runs = append(runs, res)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// DeleteRun removes a run and all of its records.
func (s *Store) DeleteRun(runID string) error {
	if err := s.Delete(runKey(runID)); err != nil {
		return err
	}
	return s.DeleteByPrefix(recordPrefix(runID))
}

// SaveRecord persists one record as soon as it exists, so an interrupted
// run keeps its completed calls. Satisfies simulator.RecordSink.
func (s *Store) SaveRecord(runID string, rec simulator.Record) error {
	return s.PutObject(recordKey(runID, rec.PersonaID, rec.ScenarioID), rec)
}

// GetRecords retrieves the incrementally flushed records of a run in
// stable key order. The canonical persona-major order lives in the saved
// run itself; this view serves progress inspection while a run is live.
func (s *Store) GetRecords(runID string) ([]simulator.Record, error) {
	pairs, err := s.GetByPrefix(recordPrefix(runID))
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]simulator.Record, 0, len(keys))
	for _, key := range keys {
		var rec simulator.Record
		if err := json.Unmarshal(pairs[key], &rec); err != nil {
			log.Printf("storage: skipping undecodable record %s: %v", key, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
