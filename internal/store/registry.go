package store

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/BuildAppolis/env-manager-sub001/internal/credentials"
)

// DatabaseFile is the per-project document location relative to the
// project root.
const DatabaseFile = ".env-manager/env-db.json"

// Registry maps project paths to open store handles. It is owned by the
// composition root (server or CLI entrypoint) rather than hidden behind
// first-access globals, so its lifecycle follows the application's.
type Registry struct {
	mu     sync.Mutex
	logger *slog.Logger
	creds  *credentials.File
	stores map[string]*EnvDatabase
}

// NewRegistry creates a registry. creds may be nil when no user-global
// credential file exists; every store it opens then runs in legacy mode.
func NewRegistry(creds *credentials.File, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		creds:  creds,
		stores: map[string]*EnvDatabase{},
	}
}

// Get returns the store for a project root, opening it on first use.
// The same handle is returned for every later call with the same path.
func (r *Registry) Get(projectPath string) (*EnvDatabase, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.stores[abs]; ok {
		return db, nil
	}

	db, err := Open(filepath.Join(abs, DatabaseFile), r.creds, r.logger)
	if err != nil {
		return nil, err
	}
	r.stores[abs] = db
	r.logger.Debug("opened project store", slog.String("project", abs))
	return db, nil
}

// Projects lists the project paths with open stores.
func (r *Registry) Projects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.stores))
	for p := range r.stores {
		out = append(out, p)
	}
	return out
}
