// Copyright (c) 2025-2026 Combridge Authors and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package registry tracks live COM object instances by opaque handle.
//
// The registry is the only component that holds COM references.  Everything
// else addresses objects through handles and borrows the reference for the
// duration of a single operation via Record.Do.  Handles are UUIDv4 strings
// and are never reassigned within the process lifetime.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olebound/combridge/internal/comrt"
	"github.com/olebound/combridge/internal/policy"
)

var (
	// ErrPermissionDenied is returned by Create when the identifier is not
	// on a non-empty allowlist.
	ErrPermissionDenied = errors.New("identifier is not on the allowlist")
	// ErrInstantiation is returned by Create when the COM layer cannot
	// create the object (unregistered ProgID, invalid CLSID, access denied).
	ErrInstantiation = errors.New("failed to create COM object")
	// ErrInvalidHandle is returned for handles that are unknown or already
	// disposed.
	ErrInvalidHandle = errors.New("invalid object handle")
)

// DisposalWarning reports that a handle was removed from the registry but
// the underlying Release raised an error.  Non-fatal: the handle is gone
// either way.
type DisposalWarning struct {
	Handle string
	Err    error
}

func (w *DisposalWarning) Error() string {
	return fmt.Sprintf("disposed %s with warning: %v", w.Handle, w.Err)
}

func (w *DisposalWarning) Unwrap() error { return w.Err }

// Info is a read-only snapshot of one live instance.
type Info struct {
	Handle     string    `json:"runtime_id"`
	Identifier string    `json:"identifier"`
	ProgID     string    `json:"prog_id"`
	CLSID      string    `json:"clsid"`
	Created    time.Time `json:"created"`
}

// Record is one live instance.  The registry owns the COM reference; callers
// borrow it through Do, which also serialises concurrent operations on the
// same handle.
type Record struct {
	handle     string
	identifier string
	ident      comrt.Identity
	created    time.Time

	mu       sync.Mutex
	obj      comrt.Object
	disposed bool
}

// Handle returns the record's opaque handle.
func (r *Record) Handle() string { return r.handle }

// Identifier returns the identifier the instance was created with, or the
// reported type name for adopted (chained) objects.
func (r *Record) Identifier() string { return r.identifier }

// Created returns the creation timestamp.
func (r *Record) Created() time.Time { return r.created }

// Do runs fn with the record's object while holding the record lock.  The
// reference is valid only inside fn; fn must not retain it.  Returns
// ErrInvalidHandle when the record was disposed after it was resolved.
func (r *Record) Do(fn func(obj comrt.Object) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return fmt.Errorf("%s: %w", r.handle, ErrInvalidHandle)
	}
	return fn(r.obj)
}

// Registry is the handle table.  Safe for concurrent use.
type Registry struct {
	conn   comrt.Connector
	policy *policy.Policy
	logger *slog.Logger

	mu   sync.RWMutex
	recs map[string]*Record
}

// New creates an empty registry.  The connector instantiates COM classes;
// the policy gates Create.  A nil logger falls back to slog.Default().
func New(conn comrt.Connector, pol *policy.Policy, lg *slog.Logger) *Registry {
	if lg == nil {
		lg = slog.Default()
	}
	if pol == nil {
		pol = policy.New(nil)
	}
	return &Registry{
		conn:   conn,
		policy: pol,
		recs:   make(map[string]*Record),
		logger: lg,
	}
}

// Create instantiates the COM class named by identifier and registers it.
// The allowlist is consulted first; a denied identifier performs no
// instantiation.  A failed instantiation registers nothing.
func (g *Registry) Create(ctx context.Context, identifier string) (Info, error) {
	identifier = strings.TrimSpace(identifier)
	if !g.policy.Permitted(identifier) {
		return Info{}, fmt.Errorf("create %q: %w", identifier, ErrPermissionDenied)
	}
	obj, err := g.conn.CreateInstance(identifier)
	if err != nil {
		return Info{}, fmt.Errorf("create %q: %w: %v", identifier, ErrInstantiation, err)
	}
	info := g.register(obj, identifier)
	g.logger.InfoContext(ctx, "registry: instance created",
		"handle", info.Handle, "identifier", identifier)
	return info, nil
}

// Adopt registers an object returned by a method call, property read or
// interface query, so the caller can keep interacting with it across tool
// calls.  typeName is the reported type of the object ("Unknown" when the
// object exposes no type information).
func (g *Registry) Adopt(obj comrt.Object, typeName string) Info {
	if typeName == "" {
		typeName = "Unknown"
	}
	return g.register(obj, typeName)
}

func (g *Registry) register(obj comrt.Object, identifier string) Info {
	rec := &Record{
		handle:     uuid.NewString(), // v4: effectively never reused
		identifier: identifier,
		ident:      obj.Identity(),
		created:    time.Now(),
		obj:        obj,
	}
	g.mu.Lock()
	g.recs[rec.handle] = rec
	g.mu.Unlock()
	return rec.Info()
}

// Info returns the record's read-only snapshot.
func (r *Record) Info() Info {
	return Info{
		Handle:     r.handle,
		Identifier: r.identifier,
		ProgID:     r.ident.ProgID,
		CLSID:      r.ident.CLSID,
		Created:    r.created,
	}
}

// Resolve looks up the live record for a handle.  The returned record is a
// borrow: use Record.Do for the duration of one operation, do not retain
// the object reference.
func (g *Registry) Resolve(handle string) (*Record, error) {
	g.mu.RLock()
	rec, ok := g.recs[handle]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", handle, ErrInvalidHandle)
	}
	return rec, nil
}

// Dispose releases the instance and removes it from the registry.  Not
// idempotent: an unknown or already-disposed handle fails with
// ErrInvalidHandle.  The record is removed even when Release fails; that
// failure surfaces as a *DisposalWarning.
func (g *Registry) Dispose(handle string) error {
	g.mu.Lock()
	rec, ok := g.recs[handle]
	if ok {
		delete(g.recs, handle)
	}
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", handle, ErrInvalidHandle)
	}

	// Waits for any in-flight operation on this record to return.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.disposed = true
	obj := rec.obj
	rec.obj = nil
	if err := obj.Release(); err != nil {
		g.logger.Warn("registry: release failed during disposal", "handle", handle, "error", err)
		return &DisposalWarning{Handle: handle, Err: err}
	}
	g.logger.Debug("registry: instance disposed", "handle", handle)
	return nil
}

// List returns a snapshot of all live instances ordered by creation time.
func (g *Registry) List() []Info {
	g.mu.RLock()
	infos := make([]Info, 0, len(g.recs))
	for _, rec := range g.recs {
		infos = append(infos, rec.Info())
	}
	g.mu.RUnlock()
	slices.SortFunc(infos, func(a, b Info) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return strings.Compare(a.Handle, b.Handle)
	})
	return infos
}

// Len returns the number of live instances.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.recs)
}

// Close releases every remaining instance.  Called on server shutdown so
// that no automation reference outlives the process gracefully.
func (g *Registry) Close() error {
	g.mu.Lock()
	recs := make([]*Record, 0, len(g.recs))
	for _, rec := range g.recs {
		recs = append(recs, rec)
	}
	g.recs = make(map[string]*Record)
	g.mu.Unlock()

	for _, rec := range recs {
		rec.mu.Lock()
		if !rec.disposed {
			rec.disposed = true
			if err := rec.obj.Release(); err != nil {
				g.logger.Warn("registry: release failed during shutdown",
					"handle", rec.handle, "identifier", rec.identifier, "error", err)
			}
			rec.obj = nil
		}
		rec.mu.Unlock()
	}
	return nil
}
