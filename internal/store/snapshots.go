package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
)

// CreateSnapshot deep-copies the entire current variable set under a
// name. Snapshots are immutable once created.
func (db *EnvDatabase) CreateSnapshot(name, description string) (*models.Snapshot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("snapshot name cannot be empty")
	}

	snap, err := db.createSnapshotLocked(name, description)
	if err != nil {
		return nil, err
	}
	if err := db.persist(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (db *EnvDatabase) createSnapshotLocked(name, description string) (*models.Snapshot, error) {
	snap := models.Snapshot{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Variables:   append([]models.Variable(nil), db.doc.Variables...),
	}
	db.doc.Snapshots = append(db.doc.Snapshots, snap)
	db.logger.Debug("snapshot created",
		slog.String("id", snap.ID), slog.String("name", name),
		slog.Int("variables", len(snap.Variables)))
	return &snap, nil
}

// GetSnapshots lists all snapshots, oldest first.
func (db *EnvDatabase) GetSnapshots() ([]models.Snapshot, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return nil, err
	}
	return append([]models.Snapshot(nil), db.doc.Snapshots...), nil
}

// RestoreSnapshot replaces the live variable set wholesale with the
// snapshot's copy. A backup snapshot of the current state is created
// first so a restore is always reversible, and a single restore history
// entry is appended.
func (db *EnvDatabase) RestoreSnapshot(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return err
	}

	var target *models.Snapshot
	for i := range db.doc.Snapshots {
		if db.doc.Snapshots[i].ID == id {
			target = &db.doc.Snapshots[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}

	backupName := fmt.Sprintf("pre-restore-%s", time.Now().UTC().Format("20060102-150405"))
	if _, err := db.createSnapshotLocked(backupName, "automatic backup before restore"); err != nil {
		return err
	}

	db.doc.Variables = append([]models.Variable(nil), target.Variables...)
	db.appendHistoryLocked(models.ActionRestore, target.Name, nil, nil)

	if err := db.persist(); err != nil {
		return err
	}
	db.logger.Info("snapshot restored",
		slog.String("id", id), slog.String("name", target.Name))
	return nil
}

// DeleteSnapshot removes a snapshot by id.
func (db *EnvDatabase) DeleteSnapshot(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.requireAuthLocked(); err != nil {
		return err
	}

	for i, snap := range db.doc.Snapshots {
		if snap.ID == id {
			db.doc.Snapshots = append(db.doc.Snapshots[:i], db.doc.Snapshots[i+1:]...)
			return db.persist()
		}
	}
	return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
}
