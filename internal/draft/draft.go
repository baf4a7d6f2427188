// Package draft implements the edit-then-publish staging layer on top
// of the variable store. A draft is a purely in-memory overlay: it
// becomes durable only by publishing, which applies the staged changes
// to the store and records a version history entry through the store's
// metadata channel. A process restart loses unpublished edits.
package draft

import (
	"time"

	"github.com/BuildAppolis/env-manager-sub001/internal/models"
)

// Change is the tagged variant for one staged operation. Exactly one of
// Create, Update or Delete implements it.
type Change interface {
	changeType() models.ChangeType
}

// Create stages a new variable.
type Create struct {
	Value string
	Meta  models.Metadata
}

// Update stages a value change. OldValue is the store's value captured
// at staging time, not re-fetched at publish time: edits made directly
// to the store between staging and publish are invisible to the diff
// and will be overwritten by publish.
type Update struct {
	Value    string
	Meta     models.Metadata
	OldValue string
}

// Delete stages a removal. OldValue retains the current value for the
// change diff; Sensitive carries the record's flag for masked display.
type Delete struct {
	OldValue  string
	Sensitive bool
}

func (Create) changeType() models.ChangeType { return models.ChangeCreate }
func (Update) changeType() models.ChangeType { return models.ChangeUpdate }
func (Delete) changeType() models.ChangeType { return models.ChangeDelete }

// entry is one staged change. Entries keep their first insertion
// position so publish order is deterministic; re-staging a name
// replaces the change in place.
type entry struct {
	name     string
	change   Change
	stagedAt time.Time
}

// Draft is the single active staging area.
type Draft struct {
	ID          string
	Description string
	Author      string
	CreatedAt   time.Time

	entries []entry
	index   map[string]int
}

func (d *Draft) stage(name string, c Change) {
	e := entry{name: name, change: c, stagedAt: time.Now().UTC()}
	if i, ok := d.index[name]; ok {
		d.entries[i] = e
		return
	}
	d.index[name] = len(d.entries)
	d.entries = append(d.entries, e)
}

// unstage drops the pending entry for name, if any.
func (d *Draft) unstage(name string) {
	i, ok := d.index[name]
	if !ok {
		return
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, name)
	for n, j := range d.index {
		if j > i {
			d.index[n] = j - 1
		}
	}
}

// changes projects the staged entries into display records in insertion
// order. NewValue is absent for deletes, OldValue for creates.
func (d *Draft) changes() []models.VersionChange {
	out := make([]models.VersionChange, 0, len(d.entries))
	for _, e := range d.entries {
		vc := models.VersionChange{Name: e.name, Type: e.change.changeType()}
		switch c := e.change.(type) {
		case Create:
			vc.NewValue = strPtr(c.Value)
			vc.Sensitive = c.Meta.Sensitive
		case Update:
			vc.OldValue = strPtr(c.OldValue)
			vc.NewValue = strPtr(c.Value)
			vc.Sensitive = c.Meta.Sensitive
		case Delete:
			vc.OldValue = strPtr(c.OldValue)
			vc.Sensitive = c.Sensitive
		}
		out = append(out, vc)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
