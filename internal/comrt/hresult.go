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

package comrt

// In this file: the HRESULT codes that combridge reports in tool responses.

import "fmt"

// HRESULT is a COM operation status code.
type HRESULT uint32

// Commonly used HRESULT values.
const (
	S_OK                  HRESULT = 0x00000000 // operation successful
	S_FALSE               HRESULT = 0x00000001 // successful but false condition
	E_FAIL                HRESULT = 0x80004005 // unspecified failure
	E_NOINTERFACE         HRESULT = 0x80004002 // interface not supported
	E_INVALIDARG          HRESULT = 0x80070057 // one or more arguments are invalid
	E_ACCESSDENIED        HRESULT = 0x80070005 // access denied
	DISP_E_MEMBERNOTFOUND HRESULT = 0x80020003 // member not found
	DISP_E_UNKNOWNNAME    HRESULT = 0x80020006 // unknown name
	DISP_E_TYPEMISMATCH   HRESULT = 0x80020005 // argument type mismatch
	DISP_E_BADPARAMCOUNT  HRESULT = 0x8002000E // invalid number of parameters
)

var hresultNames = map[HRESULT]string{
	S_OK:                  "S_OK",
	S_FALSE:               "S_FALSE",
	E_FAIL:                "E_FAIL",
	E_NOINTERFACE:         "E_NOINTERFACE",
	E_INVALIDARG:          "E_INVALIDARG",
	E_ACCESSDENIED:        "E_ACCESSDENIED",
	DISP_E_MEMBERNOTFOUND: "DISP_E_MEMBERNOTFOUND",
	DISP_E_UNKNOWNNAME:    "DISP_E_UNKNOWNNAME",
	DISP_E_TYPEMISMATCH:   "DISP_E_TYPEMISMATCH",
	DISP_E_BADPARAMCOUNT:  "DISP_E_BADPARAMCOUNT",
}

// String renders the HRESULT in the "NAME (0xXXXXXXXX)" form used in tool
// response messages.
func (hr HRESULT) String() string {
	if name, ok := hresultNames[hr]; ok {
		return fmt.Sprintf("%s (0x%08X)", name, uint32(hr))
	}
	return fmt.Sprintf("HRESULT 0x%08X", uint32(hr))
}

// Failed reports whether the HRESULT indicates failure (severity bit set).
func (hr HRESULT) Failed() bool { return hr&0x80000000 != 0 }
