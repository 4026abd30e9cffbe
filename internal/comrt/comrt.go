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

// Package comrt is the COM runtime boundary.  It defines the capability
// interfaces that the rest of combridge programs against, and contains the
// only code in the module that touches the native automation layer (go-ole,
// Windows builds only).  Everything above this package deals in opaque
// Object references and plain Go values.
package comrt

//go:generate mockgen -source=comrt.go -destination=mock_comrt/mock_comrt.go -package=mock_comrt

import "errors"

// Sentinel errors for the automation failure kinds.  The Windows
// implementation maps native HRESULTs onto these so that callers can use
// errors.Is without knowing anything about OLE.
var (
	// ErrMemberNotFound is returned when the named method or property does
	// not exist on the object (DISP_E_MEMBERNOTFOUND / DISP_E_UNKNOWNNAME).
	ErrMemberNotFound = errors.New("member not found")
	// ErrArgumentMismatch is returned on arity or type mismatches reported
	// by the automation layer (DISP_E_BADPARAMCOUNT, DISP_E_TYPEMISMATCH,
	// E_INVALIDARG).
	ErrArgumentMismatch = errors.New("argument mismatch")
	// ErrInterfaceNotSupported is returned by QueryInterface when the object
	// does not implement the requested interface (E_NOINTERFACE).
	ErrInterfaceNotSupported = errors.New("interface not supported")
	// ErrInvocation is returned when the underlying call raised a native
	// automation error, e.g. an application-level exception inside Excel.
	ErrInvocation = errors.New("automation error")
	// ErrUnsupportedPlatform is returned by NewConnector on builds without a
	// COM runtime.
	ErrUnsupportedPlatform = errors.New("COM automation is only available on Windows")
)

// Result is the outcome of a method call or property read.  Exactly one of
// Value and Object is meaningful: object-typed returns are never flattened
// into Value, they are carried as a live reference for the registry to adopt.
type Result struct {
	// Value holds a converted primitive: string, bool, integer, float,
	// time.Time, or a slice of primitives.  Nil for void returns and for
	// object returns.
	Value any
	// Object is non-nil when the call returned an automation object.  The
	// receiver becomes the owner of the reference and must eventually
	// Release it.
	Object Object
	// TypeName is the reported type of Object, best effort ("Unknown" when
	// the object exposes no type information).
	TypeName string
}

// IsObject reports whether the result carries a live object reference.
func (r Result) IsObject() bool { return r.Object != nil }

// Member describes one entry of an object's automation interface.
type Member struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"` // "method" or "property"
	ParamCount int    `json:"param_count"`
}

// Identity carries the best-effort ProgID/CLSID pair of an object.  Either
// field may be "Unknown": late-bound objects frequently cannot be resolved
// back to a registered class.
type Identity struct {
	ProgID string `json:"prog_id"`
	CLSID  string `json:"clsid"`
}

// Object is a live automation object.  All invocation is late-bound: members
// are addressed by name at call time (IDispatch semantics).  Implementations
// are not safe for concurrent use; the registry serialises access per object.
type Object interface {
	// CallMethod invokes the named method with the given positional
	// arguments.
	CallMethod(name string, args ...any) (Result, error)
	// GetProperty reads the named property.  Optional args address indexed
	// properties (e.g. Item(1)).
	GetProperty(name string, args ...any) (Result, error)
	// PutProperty writes the named property.
	PutProperty(name string, value any) error
	// QueryInterface requests the interface named by iid (a GUID string or a
	// well-known interface name such as "IDispatch").  On success the
	// returned Object is a distinct reference that must be released
	// independently of the receiver.
	QueryInterface(iid string) (Object, error)
	// TypeInfo enumerates the members of the object's automation interface.
	// Best effort: late-bound objects may expose no type library at all, in
	// which case the slice is empty and the error is nil.
	TypeInfo() ([]Member, error)
	// Identity returns the best-effort ProgID/CLSID of the object.
	Identity() Identity
	// Release drops the underlying COM reference.  The object must not be
	// used afterwards.
	Release() error
}

// Connector creates automation objects from CLSID or ProgID identifiers.
type Connector interface {
	// CreateInstance instantiates the COM class named by identifier, which
	// is either a ProgID ("Excel.Application") or a brace-delimited CLSID.
	CreateInstance(identifier string) (Object, error)
	// Close shuts the runtime down.  All objects created through the
	// connector must be released first.
	Close() error
}
