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

// In this file: best-effort type information retrieval via ITypeInfo.
//
// go-ole wraps GetTypeAttr only, so member enumeration goes through the raw
// ITypeInfo vtable: GetFuncDesc/GetVarDesc to walk the members and
// GetDocumentation to resolve names.  All of this is best effort; objects
// without a type library simply report no members.

import (
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// INVOKEKIND values from oaidl.h.
const (
	invokeFunc        = 1
	invokePropertyGet = 2
	invokePropertyPut = 4
	invokePropertyRef = 8
)

const memberidNil = -1

// maxMembers bounds the enumeration loops; dispinterfaces with more members
// than this exist only in pathological type libraries.
const maxMembers = 2048

// funcDesc mirrors the head of FUNCDESC (oaidl.h) up to cParams.  The tail
// (elemdescFunc, wFuncFlags) is never read.
type funcDesc struct {
	Memid        int32
	_            int32
	LprgScode    uintptr
	LprgElemDesc uintptr
	FuncKind     int32
	InvKind      int32
	CallConv     int32
	CParams      int16
	CParamsOpt   int16
	OVft         int16
	CScodes      int16
}

func (o *oleObject) TypeInfo() ([]Member, error) {
	var members []Member
	var err error
	o.conn.do(func() {
		members, err = o.typeInfoLocked()
	})
	return members, err
}

// typeInfoLocked must run on the apartment thread.
func (o *oleObject) typeInfoLocked() ([]Member, error) {
	ti, err := defaultTypeInfo(o.disp)
	if err != nil || ti == nil {
		// No type library; not an error for late-bound objects.
		return nil, nil
	}
	defer ti.Release()

	vtbl := ti.VTable()
	byName := make(map[string]*Member)
	var order []string

	for i := 0; i < maxMembers; i++ {
		var fd *funcDesc
		hr, _, _ := syscall.SyscallN(vtbl.GetFuncDesc,
			uintptr(unsafe.Pointer(ti)),
			uintptr(i),
			uintptr(unsafe.Pointer(&fd)),
		)
		if hr != 0 || fd == nil {
			break
		}
		name := memberName(ti, fd.Memid)
		kind := "method"
		if fd.InvKind != invokeFunc {
			kind = "property"
		}
		params := int(fd.CParams)
		syscall.SyscallN(vtbl.ReleaseFuncDesc, uintptr(unsafe.Pointer(ti)), uintptr(unsafe.Pointer(fd)))
		if name == "" {
			continue
		}
		if m, ok := byName[name]; ok {
			// Property get/put pairs collapse into one entry; a put does
			// not override the get's parameter count.
			if m.Kind == "method" && kind == "property" {
				m.Kind = kind
			}
			continue
		}
		byName[name] = &Member{Name: name, Kind: kind, ParamCount: params}
		order = append(order, name)
	}

	// Plain variables on the dispinterface are properties too.
	for i := 0; i < maxMembers; i++ {
		var vd *int32 // VARDESC; only memid (offset 0) is read
		hr, _, _ := syscall.SyscallN(vtbl.GetVarDesc,
			uintptr(unsafe.Pointer(ti)),
			uintptr(i),
			uintptr(unsafe.Pointer(&vd)),
		)
		if hr != 0 || vd == nil {
			break
		}
		name := memberName(ti, *vd)
		syscall.SyscallN(vtbl.ReleaseVarDesc, uintptr(unsafe.Pointer(ti)), uintptr(unsafe.Pointer(vd)))
		if name == "" {
			continue
		}
		if _, ok := byName[name]; !ok {
			byName[name] = &Member{Name: name, Kind: "property"}
			order = append(order, name)
		}
	}

	members := make([]Member, 0, len(order))
	for _, name := range order {
		members = append(members, *byName[name])
	}
	return members, nil
}

// typeNameLocked resolves the object's type name from its type library.
// Must run on the apartment thread.  Returns "Unknown" on any failure.
func (o *oleObject) typeNameLocked() string {
	ti, err := defaultTypeInfo(o.disp)
	if err != nil || ti == nil {
		return "Unknown"
	}
	defer ti.Release()
	if name := documentationName(ti, memberidNil); name != "" {
		return name
	}
	return "Unknown"
}

// defaultTypeInfo fetches the object's default ITypeInfo (index 0, LCID 0).
// Returns (nil, nil) when the object exposes none.
func defaultTypeInfo(disp *ole.IDispatch) (*ole.ITypeInfo, error) {
	dvtbl := disp.VTable()

	var count uint32
	hr, _, _ := syscall.SyscallN(dvtbl.GetTypeInfoCount,
		uintptr(unsafe.Pointer(disp)),
		uintptr(unsafe.Pointer(&count)),
	)
	if hr != 0 || count == 0 {
		return nil, nil
	}

	var ti *ole.ITypeInfo
	hr, _, _ = syscall.SyscallN(dvtbl.GetTypeInfo,
		uintptr(unsafe.Pointer(disp)),
		0, // iTInfo
		0, // lcid
		uintptr(unsafe.Pointer(&ti)),
	)
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return ti, nil
}

// memberName resolves a member's name via ITypeInfo::GetDocumentation.
func memberName(ti *ole.ITypeInfo, memid int32) string {
	return documentationName(ti, memid)
}

func documentationName(ti *ole.ITypeInfo, memid int32) string {
	var bstr *uint16
	hr, _, _ := syscall.SyscallN(ti.VTable().GetDocumentation,
		uintptr(unsafe.Pointer(ti)),
		uintptr(uint32(memid)),
		uintptr(unsafe.Pointer(&bstr)),
		0, // docstring
		0, // help context
		0, // help file
	)
	if hr != 0 || bstr == nil {
		return ""
	}
	defer procSysFreeString.Call(uintptr(unsafe.Pointer(bstr)))
	return lpwstrToString(bstr)
}
