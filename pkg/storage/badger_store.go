package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"angelhub/pkg/log"
	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

const (
	workKeyPrefix = "work:"      // Prefix for work record keys in DB
	libraryDBDir  = "library_db" // Subdirectory name within dataDir for Badger DB files
)

// BadgerStore implements the Store interface using BadgerDB. It is the
// embedded replacement for browser local storage: one key per work,
// JSON-encoded values.
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	ctx      context.Context // Parent context
	keyCount atomic.Int64    // Cached key count for O(1) Count
}

// NewBadgerStore opens (or creates) the library database under dataDir.
func NewBadgerStore(ctx context.Context, dataDir string, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log: logger,
		ctx: ctx,
	}

	dbPath := filepath.Join(dataDir, libraryDBDir)
	logger.Infof("Initializing work library database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create data directory %s: %w", dbPath, err)
	}

	// Configure Badger options
	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger). // Use custom logrus adapter
		WithNumVersionsToKeep(1)  // Only keep the latest record state

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dbPath, err)
	}

	count, err := store.countKeys()
	if err != nil {
		logger.Warnf("Failed to count existing works on open: %v", err)
	} else {
		store.keyCount.Store(int64(count))
	}

	logger.Infof("Work library database initialized (%d works).", count)
	return store, nil
}

// countKeys performs a one-time full key scan (used only during initialization).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(workKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// List implements the WorkStore interface. Records that fail to decode are
// skipped with a warning rather than failing the whole listing.
func (s *BadgerStore) List() ([]*models.Work, error) {
	var works []*models.Work
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(workKeyPrefix)

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			errVal := item.Value(func(val []byte) error {
				var w models.Work
				if errJson := json.Unmarshal(val, &w); errJson != nil {
					s.log.Warnf("Failed to unmarshal work for key '%s': %v. Skipping.", key, errJson)
					return nil
				}
				works = append(works, &w)
				return nil
			})
			if errVal != nil {
				return fmt.Errorf("%w: reading value for key '%s': %w", utils.ErrDatabase, key, errVal)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Errorf("DB View error in List: %v", err)
		return nil, err
	}
	return works, nil
}

// Get implements the WorkStore interface.
func (s *BadgerStore) Get(id string) (*models.Work, error) {
	key := []byte(workKeyPrefix + id)
	var work *models.Work

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: work '%s'", utils.ErrNotFound, id)
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting work key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}
		return item.Value(func(val []byte) error {
			var decoded models.Work
			if errJson := json.Unmarshal(val, &decoded); errJson != nil {
				return fmt.Errorf("%w: failed to unmarshal work JSON for key '%s': %w", utils.ErrParsing, string(key), errJson)
			}
			work = &decoded
			return nil
		})
	})
	if errView != nil {
		return nil, errView
	}
	return work, nil
}

// Put implements the WorkStore interface.
func (s *BadgerStore) Put(work *models.Work) error {
	if work.ID == "" {
		return fmt.Errorf("%w: work has no id", utils.ErrDatabase)
	}
	key := []byte(workKeyPrefix + work.ID)

	entryBytes, errJson := json.Marshal(work)
	if errJson != nil {
		wrappedErr := fmt.Errorf("%w: failed to marshal work JSON for key '%s': %w", utils.ErrParsing, string(key), errJson)
		s.log.Error(wrappedErr)
		return wrappedErr
	}

	isNew := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		_, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			isNew = true
		}
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in Put: %v", err)
		return fmt.Errorf("%w: failed setting work for key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if isNew {
		s.keyCount.Add(1)
	}

	s.log.Debugf("Stored work '%s' (%s)", work.ID, work.Title)
	return nil
}

// Update implements the WorkStore interface. The read, mutation, and write
// happen inside one transaction; the conflict retry loop re-runs the whole
// closure on contention, so mutate must be side-effect free.
func (s *BadgerStore) Update(id string, mutate func(*models.Work) error) error {
	key := []byte(workKeyPrefix + id)

	err := s.dbUpdate(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: work '%s'", utils.ErrNotFound, id)
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting work key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		var work models.Work
		errVal := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &work)
		})
		if errVal != nil {
			return fmt.Errorf("%w: failed to unmarshal work JSON for key '%s': %w", utils.ErrParsing, string(key), errVal)
		}

		if errMut := mutate(&work); errMut != nil {
			return errMut
		}
		work.ID = id // The id is the key; mutate cannot move the record.
		work.UpdatedAt = time.Now()

		entryBytes, errJson := json.Marshal(&work)
		if errJson != nil {
			return fmt.Errorf("%w: failed to marshal work JSON for key '%s': %w", utils.ErrParsing, string(key), errJson)
		}
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			s.log.WithField("key", string(key)).Errorf("DB Update error in Update: %v", err)
		}
		return err
	}
	return nil
}

// Delete implements the WorkStore interface.
func (s *BadgerStore) Delete(id string) error {
	key := []byte(workKeyPrefix + id)

	existed := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		_, errGet := txn.Get(key)
		if errGet == nil {
			existed = true
		} else if !errors.Is(errGet, badger.ErrKeyNotFound) {
			return errGet
		}
		return txn.Delete(key)
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in Delete: %v", err)
		return fmt.Errorf("%w: failed deleting work key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if existed {
		s.keyCount.Add(-1)
		s.log.Debugf("Deleted work '%s'", id)
	}
	return nil
}

// Count implements the WorkStore interface.
// Returns the cached key count (O(1)) maintained by atomic increments on writes.
func (s *BadgerStore) Count() (int, error) {
	return int(s.keyCount.Load()), nil
}

// RunGC runs BadgerDB's value log garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute // Default interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Info("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}

			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				// Run GC if log is at least 50% reclaimable space
				err = s.db.RunValueLogGC(0.5)
				if err != nil {
					break
				}
			}

			if errors.Is(err, badger.ErrNoRewrite) {
				s.log.Debug("BadgerDB GC finished (no rewrite needed).")
			} else {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done(): // Check if stop signal received via context cancellation
			s.log.Infof("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Info("Closing work library DB...")
		err := s.db.Close()
		if err != nil {
			s.log.Errorf("Error closing work library DB: %v", err)
			return err
		}
		return nil
	}
	s.log.Info("Work library DB already closed or was not initialized.")
	return nil
}
