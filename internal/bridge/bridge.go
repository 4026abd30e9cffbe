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

// Package bridge translates operation requests into calls on registered COM
// objects and converts the outcomes into protocol-safe results.
//
// The central conversion rule: object-typed return values are never
// serialised.  They are adopted into the registry and the result carries the
// new handle, so the caller can keep driving the returned object across tool
// calls (Excel.Application → .Workbooks → .Add() → a Workbook handle).
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olebound/combridge/internal/comrt"
	"github.com/olebound/combridge/internal/registry"
)

// ErrOperationTimeout is reported when a call exceeds the configured
// per-call timeout.  The in-flight native call is not preempted (COM calls
// cannot be safely killed); it keeps the per-record lock until it returns,
// and its late result is discarded.
var ErrOperationTimeout = errors.New("operation timed out")

// Op is the operation kind.
type Op int

const (
	OpInvoke Op = iota
	OpGet
	OpSet
	OpQueryInterface
	OpTypeInfo
)

func (op Op) String() string {
	switch op {
	case OpInvoke:
		return "method call"
	case OpGet:
		return "property get"
	case OpSet:
		return "property set"
	case OpQueryInterface:
		return "interface query"
	case OpTypeInfo:
		return "type info"
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Request is one operation against a registered instance.  Constructed
// fresh per tool call, never persisted.
type Request struct {
	Handle    string
	Op        Op
	Member    string // method/property name for OpInvoke/OpGet/OpSet
	Args      []any  // positional arguments (OpInvoke, indexed OpGet)
	Value     any    // OpSet only
	Interface string // OpQueryInterface only
}

// Result is the protocol-safe outcome of one operation.
type Result struct {
	// Value is the converted primitive return, nil for void returns,
	// object returns and acknowledgements.
	Value any
	// Handle is set when the operation produced a new registered object
	// (object-returning call or interface query).
	Handle string
	// TypeName reports the type of the object behind Handle, best effort.
	TypeName string
	// Members is set for OpTypeInfo.
	Members []comrt.Member
}

// IsObject reports whether the result carries a chained handle.
func (r Result) IsObject() bool { return r.Handle != "" }

// Bridge performs operations against the registry's instances.
type Bridge struct {
	reg     *registry.Registry
	timeout time.Duration // 0 disables the per-call timeout
	logger  *slog.Logger
}

// New creates a Bridge.  timeout bounds every individual COM call; zero
// means unbounded (the default: a blocked call, e.g. a modal dialog in the
// automated application, is surfaced to the operator by the agent hanging,
// not hidden by a spurious error).
func New(reg *registry.Registry, timeout time.Duration, lg *slog.Logger) *Bridge {
	if lg == nil {
		lg = slog.Default()
	}
	return &Bridge{reg: reg, timeout: timeout, logger: lg}
}

// outcome is what the call goroutine reports back.
type outcome struct {
	res     comrt.Result
	members []comrt.Member
	err     error
}

// Perform resolves the request's handle and executes the operation,
// serialised against other operations on the same handle.  On timeout the
// native call is left to finish on its own; its result is discarded without
// touching registry state.
func (b *Bridge) Perform(ctx context.Context, req Request) (Result, error) {
	rec, err := b.reg.Resolve(req.Handle)
	if err != nil {
		return Result{}, err
	}

	ch := make(chan outcome, 1)
	go func() {
		var out outcome
		doErr := rec.Do(func(obj comrt.Object) error {
			out = b.execute(obj, req)
			return nil
		})
		if doErr != nil {
			// Disposed between Resolve and Do.
			out = outcome{err: doErr}
		}
		ch <- out
	}()

	var expired <-chan time.Time
	if b.timeout > 0 {
		t := time.NewTimer(b.timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case out := <-ch:
		if out.err != nil {
			return Result{}, out.err
		}
		return b.finish(req, out), nil
	case <-ctx.Done():
		go b.discard(ch, req)
		return Result{}, fmt.Errorf("%s %q: %w: %v", req.Op, req.Member, ErrOperationTimeout, ctx.Err())
	case <-expired:
		go b.discard(ch, req)
		return Result{}, fmt.Errorf("%s %q: %w after %s", req.Op, req.Member, ErrOperationTimeout, b.timeout)
	}
}

// execute runs the operation against the borrowed object reference.
func (b *Bridge) execute(obj comrt.Object, req Request) (out outcome) {
	switch req.Op {
	case OpInvoke:
		out.res, out.err = obj.CallMethod(req.Member, req.Args...)
	case OpGet:
		out.res, out.err = obj.GetProperty(req.Member, req.Args...)
	case OpSet:
		out.err = obj.PutProperty(req.Member, req.Value)
	case OpQueryInterface:
		o, err := obj.QueryInterface(req.Interface)
		if err != nil {
			out.err = err
			return
		}
		out.res = comrt.Result{Object: o, TypeName: req.Interface}
	case OpTypeInfo:
		out.members, out.err = obj.TypeInfo()
	default:
		out.err = fmt.Errorf("unsupported operation: %v", req.Op)
	}
	return
}

// finish converts a successful outcome, adopting object returns into the
// registry.
func (b *Bridge) finish(req Request, out outcome) Result {
	if out.res.IsObject() {
		info := b.reg.Adopt(out.res.Object, out.res.TypeName)
		b.logger.Debug("bridge: object result registered",
			"parent", req.Handle, "handle", info.Handle, "type", info.Identifier)
		return Result{Handle: info.Handle, TypeName: info.Identifier}
	}
	if req.Op == OpTypeInfo {
		return Result{Members: out.members}
	}
	return Result{Value: out.res.Value}
}

// discard consumes the late outcome of a timed-out call.  An object result
// that nobody will ever address is released immediately so the reference
// does not leak.
func (b *Bridge) discard(ch <-chan outcome, req Request) {
	out := <-ch
	b.logger.Warn("bridge: discarding late result of timed-out call",
		"op", req.Op.String(), "handle", req.Handle, "member", req.Member, "error", out.err)
	if out.res.IsObject() {
		if err := out.res.Object.Release(); err != nil {
			b.logger.Warn("bridge: release of late object result failed", "error", err)
		}
	}
}
