// Package ports implements the user-global per-project port registry.
// Reservations live in a small BoltDB file under the user config dir so
// every project on the machine draws from one shared pool.
package ports

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	// bucketReservations maps project name -> reservation record
	bucketReservations = []byte("reservations")

	// ErrNotRegistered indicates the project has no reserved port
	ErrNotRegistered = errors.New("project has no registered port")

	// ErrRangeExhausted indicates no free port remains in the range
	ErrRangeExhausted = errors.New("port range exhausted")
)

// Default reservation range.
const (
	DefaultRangeStart = 3000
	DefaultRangeEnd   = 3999
)

// Reservation is one project's port claim.
type Reservation struct {
	Project    string    `json:"project"`
	Port       int       `json:"port"`
	ReservedAt time.Time `json:"reservedAt"`
}

// Registry is a BoltDB-backed port allocator.
type Registry struct {
	db         *bbolt.DB
	rangeStart int
	rangeEnd   int
}

// DefaultPath resolves the registry file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "env-manager", "ports.db"), nil
}

// Open opens (or creates) the registry file. Passing zero for either
// bound selects the default range.
func Open(path string, rangeStart, rangeEnd int) (*Registry, error) {
	if rangeStart == 0 {
		rangeStart = DefaultRangeStart
	}
	if rangeEnd == 0 {
		rangeEnd = DefaultRangeEnd
	}
	if rangeEnd < rangeStart {
		return nil, fmt.Errorf("invalid port range %d-%d", rangeStart, rangeEnd)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create registry dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open port registry: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketReservations)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize registry bucket: %w", err)
	}

	return &Registry{db: db, rangeStart: rangeStart, rangeEnd: rangeEnd}, nil
}

// Close closes the backing database.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Reserve returns the project's port, allocating one when needed.
// Idempotent per project: an existing reservation is returned as-is.
// A fresh allocation takes the lowest free port >= preferred (or the
// range start when preferred is zero or out of range).
func (r *Registry) Reserve(project string, preferred int) (int, error) {
	if project == "" {
		return 0, fmt.Errorf("project name cannot be empty")
	}

	var port int
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReservations)

		if raw := b.Get([]byte(project)); raw != nil {
			var existing Reservation
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("failed to parse reservation: %w", err)
			}
			port = existing.Port
			return nil
		}

		taken := map[int]bool{}
		if err := b.ForEach(func(_, v []byte) error {
			var res Reservation
			if err := json.Unmarshal(v, &res); err != nil {
				return err
			}
			taken[res.Port] = true
			return nil
		}); err != nil {
			return err
		}

		start := preferred
		if start < r.rangeStart || start > r.rangeEnd {
			start = r.rangeStart
		}
		candidate := -1
		for p := start; p <= r.rangeEnd; p++ {
			if !taken[p] {
				candidate = p
				break
			}
		}
		if candidate < 0 {
			// Wrap below the preferred port before giving up
			for p := r.rangeStart; p < start; p++ {
				if !taken[p] {
					candidate = p
					break
				}
			}
		}
		if candidate < 0 {
			return ErrRangeExhausted
		}

		res := Reservation{Project: project, Port: candidate, ReservedAt: time.Now().UTC()}
		raw, err := json.Marshal(res)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(project), raw); err != nil {
			return fmt.Errorf("failed to store reservation: %w", err)
		}
		port = candidate
		return nil
	})
	if err != nil {
		return 0, err
	}
	return port, nil
}

// Lookup returns the project's reserved port.
func (r *Registry) Lookup(project string) (int, error) {
	var port int
	err := r.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketReservations).Get([]byte(project))
		if raw == nil {
			return fmt.Errorf("%w: %s", ErrNotRegistered, project)
		}
		var res Reservation
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("failed to parse reservation: %w", err)
		}
		port = res.Port
		return nil
	})
	if err != nil {
		return 0, err
	}
	return port, nil
}

// Release frees the project's reservation, if any.
func (r *Registry) Release(project string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReservations)
		if b.Get([]byte(project)) == nil {
			return fmt.Errorf("%w: %s", ErrNotRegistered, project)
		}
		return b.Delete([]byte(project))
	})
}

// List returns every reservation sorted by bucket key order.
func (r *Registry) List() ([]Reservation, error) {
	var out []Reservation
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketReservations).ForEach(func(_, v []byte) error {
			var res Reservation
			if err := json.Unmarshal(v, &res); err != nil {
				return err
			}
			out = append(out, res)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
