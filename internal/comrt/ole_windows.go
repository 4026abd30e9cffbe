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

//go:build windows

package comrt

// In this file: the go-ole backed Connector and Object implementations.
//
// All COM calls are funnelled onto a single OS thread that is initialised
// into a single-threaded apartment.  Automation servers are predominantly
// apartment-threaded; dispatching from one dedicated thread sidesteps
// cross-apartment marshaling entirely.

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"syscall"
	"time"
	"unicode/utf16"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

var (
	modole32          = syscall.NewLazyDLL("ole32.dll")
	modoleaut32       = syscall.NewLazyDLL("oleaut32.dll")
	procProgIDFromCLS = modole32.NewProc("ProgIDFromCLSID")
	procCoTaskMemFree = modole32.NewProc("CoTaskMemFree")
	procSysFreeString = modoleaut32.NewProc("SysFreeString")
)

// wellKnownIIDs maps interface names accepted by QueryInterface to their
// IIDs, for callers that do not want to spell out the GUID.
var wellKnownIIDs = map[string]*ole.GUID{
	"iunknown":                  ole.IID_IUnknown,
	"idispatch":                 ole.IID_IDispatch,
	"ienumvariant":              ole.IID_IEnumVariant,
	"iconnectionpointcontainer": ole.IID_IConnectionPointContainer,
	"iprovideclassinfo":         ole.IID_IProvideClassInfo,
}

// oleConnector owns the COM apartment thread.  Close stops the thread and
// uninitialises COM; objects created through the connector must be released
// before that.
type oleConnector struct {
	calls chan func()
}

// NewConnector starts the COM apartment thread and returns a Connector
// backed by the native OLE automation runtime.
func NewConnector() (Connector, error) {
	c := &oleConnector{calls: make(chan func())}
	errc := make(chan error, 1)
	go c.pump(errc)
	if err := <-errc; err != nil {
		return nil, err
	}
	return c, nil
}

// pump is the apartment thread.  It reports initialisation status on errc
// once, then executes queued calls until the calls channel is closed.
func (c *oleConnector) pump(errc chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		errc <- fmt.Errorf("CoInitializeEx: %w", err)
		return
	}
	defer ole.CoUninitialize()
	errc <- nil

	for fn := range c.calls {
		fn()
	}
}

// do executes fn on the apartment thread and waits for it to return.
func (c *oleConnector) do(fn func()) {
	done := make(chan struct{})
	c.calls <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// Close stops the apartment thread.
func (c *oleConnector) Close() error {
	close(c.calls)
	return nil
}

func (c *oleConnector) CreateInstance(identifier string) (Object, error) {
	var obj Object
	var err error
	c.do(func() {
		obj, err = c.createInstance(identifier)
	})
	return obj, err
}

func (c *oleConnector) createInstance(identifier string) (Object, error) {
	unknown, err := oleutil.CreateObject(identifier)
	if err != nil {
		return nil, fmt.Errorf("CoCreateInstance %q: %w", identifier, err)
	}
	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		return nil, fmt.Errorf("%q does not support automation: %w", identifier, err)
	}
	return &oleObject{conn: c, disp: disp, ident: resolveIdentity(identifier)}, nil
}

// resolveIdentity fills in both halves of the ProgID/CLSID pair where the
// registry allows it.  Mirrors the behaviour of the original automation
// bridges: failures degrade to "Unknown", never to an error.
func resolveIdentity(identifier string) Identity {
	id := Identity{ProgID: "Unknown", CLSID: "Unknown"}
	clsid, err := ole.ClassIDFrom(identifier)
	if err != nil {
		if strings.HasPrefix(identifier, "{") {
			id.CLSID = identifier
		} else {
			id.ProgID = identifier
		}
		return id
	}
	id.CLSID = clsid.String()
	if strings.HasPrefix(identifier, "{") {
		if progID, err := progIDFromCLSID(clsid); err == nil {
			id.ProgID = progID
		}
	} else {
		id.ProgID = identifier
	}
	return id
}

// progIDFromCLSID wraps ole32!ProgIDFromCLSID.
func progIDFromCLSID(clsid *ole.GUID) (string, error) {
	var p *uint16
	hr, _, _ := procProgIDFromCLS.Call(
		uintptr(unsafe.Pointer(clsid)),
		uintptr(unsafe.Pointer(&p)),
	)
	if hr != 0 {
		return "", ole.NewError(hr)
	}
	defer procCoTaskMemFree.Call(uintptr(unsafe.Pointer(p)))
	return lpwstrToString(p), nil
}

// oleObject wraps an IDispatch pointer.  Not safe for concurrent use; the
// registry serialises callers, and every call is executed on the connector's
// apartment thread.
type oleObject struct {
	conn  *oleConnector
	disp  *ole.IDispatch
	ident Identity
}

func (o *oleObject) CallMethod(name string, args ...any) (Result, error) {
	var res Result
	var err error
	o.conn.do(func() {
		var v *ole.VARIANT
		v, err = oleutil.CallMethod(o.disp, name, convertArgs(args)...)
		if err != nil {
			err = mapAutomationError("call", name, err)
			return
		}
		res = o.variantResult(v)
	})
	return res, err
}

func (o *oleObject) GetProperty(name string, args ...any) (Result, error) {
	var res Result
	var err error
	o.conn.do(func() {
		var v *ole.VARIANT
		v, err = oleutil.GetProperty(o.disp, name, convertArgs(args)...)
		if err != nil {
			err = mapAutomationError("get", name, err)
			return
		}
		res = o.variantResult(v)
	})
	return res, err
}

func (o *oleObject) PutProperty(name string, value any) error {
	var err error
	o.conn.do(func() {
		_, err = oleutil.PutProperty(o.disp, name, convertArgs([]any{value})...)
		if err != nil {
			err = mapAutomationError("put", name, err)
		}
	})
	return err
}

func (o *oleObject) QueryInterface(iid string) (Object, error) {
	guid, err := parseIID(iid)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a known interface name or GUID", ErrInterfaceNotSupported, iid)
	}
	var obj Object
	o.conn.do(func() {
		var disp *ole.IDispatch
		disp, err = o.disp.QueryInterface(guid)
		if err != nil {
			err = mapAutomationError("query interface", iid, err)
			return
		}
		obj = &oleObject{conn: o.conn, disp: disp, ident: Identity{ProgID: "Unknown", CLSID: "Unknown"}}
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (o *oleObject) Identity() Identity { return o.ident }

func (o *oleObject) Release() error {
	o.conn.do(func() {
		o.disp.Release()
	})
	o.disp = nil
	return nil
}

// parseIID resolves an interface identifier: a well-known name or a GUID
// string (braces optional).
func parseIID(iid string) (*ole.GUID, error) {
	if guid, ok := wellKnownIIDs[strings.ToLower(strings.TrimSpace(iid))]; ok {
		return guid, nil
	}
	s := strings.TrimSpace(iid)
	if !strings.HasPrefix(s, "{") {
		s = "{" + s + "}"
	}
	return ole.CLSIDFromString(s)
}

// variantResult converts an automation return value.  Object returns keep
// the live reference; everything else is flattened to a plain Go value.
// Must run on the apartment thread.
func (o *oleObject) variantResult(v *ole.VARIANT) Result {
	if v == nil {
		return Result{}
	}
	switch {
	case v.VT == ole.VT_EMPTY || v.VT == ole.VT_NULL:
		v.Clear()
		return Result{}
	case v.VT == ole.VT_DISPATCH:
		disp := v.ToIDispatch()
		if disp == nil {
			v.Clear()
			return Result{}
		}
		disp.AddRef()
		v.Clear()
		obj := &oleObject{conn: o.conn, disp: disp, ident: Identity{ProgID: "Unknown", CLSID: "Unknown"}}
		return Result{Object: obj, TypeName: obj.typeNameLocked()}
	case v.VT == ole.VT_UNKNOWN:
		unknown := v.ToIUnknown()
		if unknown == nil {
			v.Clear()
			return Result{}
		}
		disp, err := unknown.QueryInterface(ole.IID_IDispatch)
		v.Clear()
		if err != nil {
			// A bare IUnknown cannot be driven late-bound; report it by
			// type rather than dropping the call outcome.
			return Result{Value: "<non-automation object>"}
		}
		obj := &oleObject{conn: o.conn, disp: disp, ident: Identity{ProgID: "Unknown", CLSID: "Unknown"}}
		return Result{Object: obj, TypeName: obj.typeNameLocked()}
	case v.VT&ole.VT_ARRAY != 0:
		arr := v.ToArray()
		if arr == nil {
			v.Clear()
			return Result{}
		}
		vals := arr.ToValueArray()
		v.Clear()
		for i, el := range vals {
			vals[i] = flattenElement(el)
		}
		return Result{Value: vals}
	case v.VT == ole.VT_DATE:
		f := math.Float64frombits(uint64(v.Val))
		v.Clear()
		return Result{Value: oleDateToTime(f)}
	default:
		val := v.Value()
		v.Clear()
		if disp, ok := val.(*ole.IDispatch); ok {
			disp.AddRef()
			obj := &oleObject{conn: o.conn, disp: disp, ident: Identity{ProgID: "Unknown", CLSID: "Unknown"}}
			return Result{Object: obj, TypeName: obj.typeNameLocked()}
		}
		return Result{Value: val}
	}
}

// flattenElement converts safe-array elements.  Arrays of automation objects
// are out of scope (the conversion policy covers safe arrays of primitives),
// so embedded references are released and replaced with a marker.
func flattenElement(el any) any {
	if disp, ok := el.(*ole.IDispatch); ok {
		disp.Release()
		return "<COM object>"
	}
	return el
}

// oleDateToTime converts an OLE automation date (fractional days since
// 1899-12-30) to a time.Time.
func oleDateToTime(d float64) time.Time {
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.Local)
	// The fractional part is time-of-day and is always positive, even for
	// dates before the epoch.
	days := math.Trunc(d)
	frac := math.Abs(d - days)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(frac * 24 * float64(time.Hour)))
}

// convertArgs prepares tool-call arguments for the automation layer.  JSON
// numbers arrive as float64; integral values are narrowed to int because
// many automation servers refuse VT_R8 where VT_I4 is expected.
func convertArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch n := a.(type) {
		case float64:
			if n == math.Trunc(n) && math.Abs(n) < math.MaxInt32 {
				out[i] = int(n)
			} else {
				out[i] = n
			}
		case []any:
			out[i] = convertArgs(n)
		default:
			out[i] = a
		}
	}
	return out
}

// mapAutomationError translates OLE failure codes into the package's
// sentinel errors.
func mapAutomationError(op, member string, err error) error {
	var oerr *ole.OleError
	if !errors.As(err, &oerr) {
		return fmt.Errorf("%s %q: %w: %v", op, member, ErrInvocation, err)
	}
	switch HRESULT(oerr.Code()) {
	case DISP_E_MEMBERNOTFOUND, DISP_E_UNKNOWNNAME:
		return fmt.Errorf("%s %q: %w", op, member, ErrMemberNotFound)
	case DISP_E_BADPARAMCOUNT, DISP_E_TYPEMISMATCH, E_INVALIDARG:
		return fmt.Errorf("%s %q: %w: %v", op, member, ErrArgumentMismatch, err)
	case E_NOINTERFACE:
		return fmt.Errorf("%s %q: %w", op, member, ErrInterfaceNotSupported)
	}
	return fmt.Errorf("%s %q: %w: %v", op, member, ErrInvocation, err)
}

// lpwstrToString decodes a NUL-terminated UTF-16 string.
func lpwstrToString(p *uint16) string {
	if p == nil {
		return ""
	}
	var u []uint16
	for ptr := unsafe.Pointer(p); ; ptr = unsafe.Pointer(uintptr(ptr) + 2) {
		c := *(*uint16)(ptr)
		if c == 0 {
			break
		}
		u = append(u, c)
	}
	return string(utf16.Decode(u))
}
