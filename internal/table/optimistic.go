package table

import (
	"context"
	"errors"
	"sync"
)

// ErrEditInFlight is returned when a cell already has an unresolved mutation.
// The new edit is rejected rather than queued.
var ErrEditInFlight = errors.New("edit already in flight for this cell")

// FieldAccess reads and writes one editable field of a record.
type FieldAccess[R Record] struct {
	Get func(R) interface{}
	Set func(*R, interface{})
}

// RemoteUpdate performs the real mutation against the upstream API.
type RemoteUpdate func(ctx context.Context, key, field string, value interface{}) error

// RemoteDelete performs the real bulk delete against the upstream API.
type RemoteDelete func(ctx context.Context, keys []string) error

type cellKey struct {
	record string
	field  string
}

// Applier runs optimistic mutations over a controller's canonical set: the
// local write happens first, the remote call follows, and a remote failure
// rolls the cell back to its pre-edit value.
type Applier[R Record] struct {
	ctrl   *Controller[R]
	fields map[string]FieldAccess[R]

	mu       sync.Mutex
	inflight map[cellKey]struct{}
	locked   map[string]struct{}
}

func NewApplier[R Record](ctrl *Controller[R], fields map[string]FieldAccess[R]) *Applier[R] {
	return &Applier[R]{
		ctrl:     ctrl,
		fields:   fields,
		inflight: make(map[cellKey]struct{}),
		locked:   make(map[string]struct{}),
	}
}

// ApplyFieldEdit optimistically writes value into one cell and confirms it
// remotely. At most one edit per (record, field) cell may be unresolved at a
// time; a second concurrent edit gets ErrEditInFlight. On remote failure the
// snapshot taken before the local write is restored and the error is returned
// for the caller to surface.
func (a *Applier[R]) ApplyFieldEdit(ctx context.Context, key, field string, value interface{}, remote RemoteUpdate) error {
	access, ok := a.fields[field]
	if !ok {
		return errors.New("field is not editable: " + field)
	}

	ck := cellKey{record: key, field: field}
	a.mu.Lock()
	if _, busy := a.inflight[ck]; busy {
		a.mu.Unlock()
		return ErrEditInFlight
	}
	if _, busy := a.locked[key]; busy {
		a.mu.Unlock()
		return ErrEditInFlight
	}
	a.inflight[ck] = struct{}{}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.inflight, ck)
		a.mu.Unlock()
	}()

	var before interface{}
	found := a.ctrl.Mutate(key, func(r *R) {
		before = access.Get(*r)
		access.Set(r, value)
	})
	if !found {
		return errors.New("record not loaded: " + key)
	}

	if err := remote(ctx, key, field, value); err != nil {
		a.ctrl.Mutate(key, func(r *R) {
			access.Set(r, before)
		})
		return err
	}
	return nil
}

// ApplyBulkDelete confirms the delete remotely, then removes the records from
// the canonical set and clears the selection. The affected records are locked
// against field edits for the duration; records with an unresolved cell edit
// cause the whole bulk delete to be rejected with ErrEditInFlight.
func (a *Applier[R]) ApplyBulkDelete(ctx context.Context, keys []string, remote RemoteDelete) error {
	if len(keys) == 0 {
		return nil
	}

	a.mu.Lock()
	for ck := range a.inflight {
		for _, k := range keys {
			if ck.record == k {
				a.mu.Unlock()
				return ErrEditInFlight
			}
		}
	}
	for _, k := range keys {
		if _, busy := a.locked[k]; busy {
			a.mu.Unlock()
			return ErrEditInFlight
		}
	}
	for _, k := range keys {
		a.locked[k] = struct{}{}
	}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		for _, k := range keys {
			delete(a.locked, k)
		}
		a.mu.Unlock()
	}()

	if err := remote(ctx, keys); err != nil {
		return err
	}

	a.ctrl.removeKeys(keys)
	return nil
}

// removeKeys drops the given keys from the canonical set and selection,
// preserving the order of the remaining records.
func (c *Controller[R]) removeKeys(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}

	kept := c.records[:0]
	for _, r := range c.records {
		if _, gone := drop[r.Key()]; gone {
			continue
		}
		kept = append(kept, r)
	}
	c.records = kept

	c.index = make(map[string]int, len(c.records))
	for i, r := range c.records {
		c.index[r.Key()] = i
	}
	for k := range drop {
		delete(c.selection, k)
	}
	if removed := int64(len(keys)); c.total >= removed {
		c.total -= removed
	} else {
		c.total = 0
	}
}
