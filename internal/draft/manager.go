package draft

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

// versionHistoryKey is the store metadata slot the published version
// history lives under. The store itself knows nothing about drafts.
const versionHistoryKey = "versionHistory"

// Manager owns the single active draft for one store. At most one draft
// exists at a time; creating a new one discards any unpublished draft.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger
	db     *store.EnvDatabase

	current *Draft

	// versions caches the published history newest-first; nil until
	// first loaded from the store's metadata channel
	versions []models.VersionEntry
}

// NewManager creates a draft manager bound to one store instance.
func NewManager(db *store.EnvDatabase, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger: logger.With(slog.String("component", "draft")),
		db:     db,
	}
}

// CreateDraft starts a new draft, always replacing any prior one.
// There is no merging of unpublished drafts.
func (m *Manager) CreateDraft(description, author string) *Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createDraftLocked(description, author)
}

func (m *Manager) createDraftLocked(description, author string) *Draft {
	if m.current != nil {
		m.logger.Warn("replacing unpublished draft", slog.String("id", m.current.ID))
	}
	m.current = &Draft{
		ID:          uuid.New().String(),
		Description: description,
		Author:      author,
		CreatedAt:   time.Now().UTC(),
		index:       map[string]int{},
	}
	return m.current
}

// HasDraft reports whether an active draft exists.
func (m *Manager) HasDraft() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// CurrentDraft returns the active draft, or ErrNoDraft.
func (m *Manager) CurrentDraft() (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoDraft
	}
	return m.current, nil
}

// SetLabel sets the active draft's description and author under the
// manager lock. Empty arguments leave the corresponding field as is.
func (m *Manager) SetLabel(description, author string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoDraft
	}
	if description != "" {
		m.current.Description = description
	}
	if author != "" {
		m.current.Author = author
	}
	return nil
}

// AddVariable stages one change, implicitly creating a draft when none
// is active. The store's current value is captured now as the change's
// old value; it is not re-read at publish time.
//
// Staging a delete for a variable the store has no record of simply
// drops any pending entry for that name instead of producing a delete
// change with an undefined old value.
func (m *Manager) AddVariable(name, value string, meta models.Metadata, changeType models.ChangeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return fmt.Errorf("variable name cannot be empty")
	}
	if m.current == nil {
		m.createDraftLocked("", "")
	}

	existing, err := m.db.GetVariable(name)
	if err != nil && !errors.Is(err, store.ErrVariableNotFound) {
		return err
	}

	switch changeType {
	case models.ChangeDelete:
		if existing == nil {
			m.current.unstage(name)
			return nil
		}
		m.current.stage(name, Delete{OldValue: existing.Value, Sensitive: existing.Sensitive})
	case models.ChangeCreate, models.ChangeUpdate:
		if existing != nil {
			m.current.stage(name, Update{Value: value, Meta: meta, OldValue: existing.Value})
		} else {
			m.current.stage(name, Create{Value: value, Meta: meta})
		}
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}

	m.logger.Debug("change staged",
		slog.String("name", name), slog.String("type", string(changeType)))
	return nil
}

// RemoveVariable drops a pending change from the draft without touching
// the store.
func (m *Manager) RemoveVariable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoDraft
	}
	m.current.unstage(name)
	return nil
}

// GetDraftChanges projects the staged changes for display, in insertion
// order. Returns an empty list when no draft is active.
func (m *Manager) GetDraftChanges() []models.VersionChange {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return []models.VersionChange{}
	}
	return m.current.changes()
}

// DiscardDraft drops the active draft without touching the store.
func (m *Manager) DiscardDraft() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.logger.Info("draft discarded", slog.String("id", m.current.ID))
	}
	m.current = nil
}

// PublishDraft applies every staged change to the store in insertion
// order, records a version history entry through the store's metadata
// channel and discards the draft.
//
// Publish is not atomic across the store: a failure partway through
// leaves the already-applied changes in place with no rollback. Callers
// must treat a publish error as "some changes may have applied" and
// re-validate state.
func (m *Manager) PublishDraft() (*models.VersionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || len(m.current.entries) == 0 {
		return nil, ErrNoChanges
	}

	changes, err := m.sealChanges(m.current.changes())
	if err != nil {
		return nil, fmt.Errorf("failed to seal sensitive changes: %w", err)
	}

	for _, e := range m.current.entries {
		switch c := e.change.(type) {
		case Create:
			if _, err := m.db.SetVariable(e.name, c.Value, c.Meta); err != nil {
				return nil, fmt.Errorf("failed to apply create for %s: %w", e.name, err)
			}
		case Update:
			if _, err := m.db.SetVariable(e.name, c.Value, c.Meta); err != nil {
				return nil, fmt.Errorf("failed to apply update for %s: %w", e.name, err)
			}
		case Delete:
			if _, err := m.db.DeleteVariable(e.name); err != nil {
				return nil, fmt.Errorf("failed to apply delete for %s: %w", e.name, err)
			}
		}
	}

	count, err := m.db.VariableCount()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	version := models.VersionEntry{
		ID:            uuid.New().String(),
		Version:       "v" + now.Format("2006.01.02.1504"),
		Description:   m.current.Description,
		Author:        m.current.Author,
		Timestamp:     now,
		VariableCount: count,
		Changes:       changes,
		Published:     true,
	}

	versions, err := m.versionsLocked()
	if err != nil {
		return nil, err
	}
	m.versions = append([]models.VersionEntry{version}, versions...)
	if err := m.db.SetMetadata(versionHistoryKey, m.versions); err != nil {
		return nil, fmt.Errorf("failed to persist version history: %w", err)
	}

	m.logger.Info("draft published",
		slog.String("version", version.Version),
		slog.Int("changes", len(changes)),
		slog.Int("variables", count))

	m.current = nil
	return &version, nil
}

// sealChanges returns a copy of changes with sensitive old and new
// values encrypted by the store key, so version history persisted in
// the same document as encrypted variables never carries their
// plaintext. Without key material values pass through unchanged and
// Encrypted stays false.
func (m *Manager) sealChanges(changes []models.VersionChange) ([]models.VersionChange, error) {
	out := make([]models.VersionChange, len(changes))
	copy(out, changes)
	for i := range out {
		if !out[i].Sensitive {
			continue
		}
		sealed := false
		if out[i].OldValue != nil {
			v, enc, err := m.db.SealValue(*out[i].OldValue)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", out[i].Name, err)
			}
			out[i].OldValue = &v
			sealed = enc
		}
		if out[i].NewValue != nil {
			v, enc, err := m.db.SealValue(*out[i].NewValue)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", out[i].Name, err)
			}
			out[i].NewValue = &v
			sealed = sealed || enc
		}
		out[i].Encrypted = sealed
	}
	return out, nil
}

// GetVersionHistory returns the published versions newest-first.
func (m *Manager) GetVersionHistory() ([]models.VersionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versionsLocked()
}

func (m *Manager) versionsLocked() ([]models.VersionEntry, error) {
	if m.versions != nil {
		return m.versions, nil
	}
	var versions []models.VersionEntry
	err := m.db.GetMetadata(versionHistoryKey, &versions)
	if err != nil {
		if errors.Is(err, store.ErrMetadataNotFound) {
			m.versions = []models.VersionEntry{}
			return m.versions, nil
		}
		return nil, err
	}
	m.versions = versions
	return m.versions, nil
}

func (m *Manager) findVersionLocked(id string) (*models.VersionEntry, error) {
	versions, err := m.versionsLocked()
	if err != nil {
		return nil, err
	}
	for i := range versions {
		if versions[i].ID == id {
			return &versions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
}

// CompareVersions returns the change list of the target version.
// This is deliberately not a recomputed delta between the two versions;
// callers get the target's own published changes.
func (m *Manager) CompareVersions(fromID, toID string) ([]models.VersionChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.findVersionLocked(fromID); err != nil {
		return nil, err
	}
	target, err := m.findVersionLocked(toID)
	if err != nil {
		return nil, err
	}
	return target.Changes, nil
}

// RestoreFromVersion opens a new draft labeled after the version and
// stages the inverse of its published changes, so publishing the draft
// undoes that version: creates become deletes, deletes become creates
// and updates swap old and new values.
func (m *Manager) RestoreFromVersion(id string) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version, err := m.findVersionLocked(id)
	if err != nil {
		return nil, err
	}

	d := m.createDraftLocked(fmt.Sprintf("Restore from %s", version.Version), "")

	for _, change := range version.Changes {
		if change.Encrypted {
			opened, err := m.openChange(change)
			if err != nil {
				return nil, fmt.Errorf("failed to open sealed change for %s: %w", change.Name, err)
			}
			change = opened
		}
		meta := models.Metadata{Sensitive: change.Sensitive}
		switch change.Type {
		case models.ChangeCreate:
			if change.NewValue == nil {
				continue
			}
			d.stage(change.Name, Delete{OldValue: *change.NewValue, Sensitive: change.Sensitive})
		case models.ChangeDelete:
			if change.OldValue == nil {
				continue
			}
			d.stage(change.Name, Create{Value: *change.OldValue, Meta: meta})
		case models.ChangeUpdate:
			if change.OldValue == nil || change.NewValue == nil {
				continue
			}
			d.stage(change.Name, Update{Value: *change.OldValue, Meta: meta, OldValue: *change.NewValue})
		}
	}

	m.logger.Info("restore draft staged",
		slog.String("version", version.Version),
		slog.Int("changes", len(d.entries)))
	return d, nil
}

// openChange decrypts the sealed values of a sensitive history change.
func (m *Manager) openChange(change models.VersionChange) (models.VersionChange, error) {
	if change.OldValue != nil {
		v, err := m.db.OpenValue(*change.OldValue)
		if err != nil {
			return change, err
		}
		change.OldValue = &v
	}
	if change.NewValue != nil {
		v, err := m.db.OpenValue(*change.NewValue)
		if err != nil {
			return change, err
		}
		change.NewValue = &v
	}
	change.Encrypted = false
	return change, nil
}
