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

package mcp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/olebound/combridge/internal/comrt"
	"github.com/olebound/combridge/internal/comrt/mock_comrt"
	"github.com/olebound/combridge/internal/policy"
)

// createInstance creates an instance of identifier backed by obj through the
// create_instance handler and returns its runtime_id.
func createInstance(t *testing.T, srv *Server, conn *mock_comrt.MockConnector, obj comrt.Object, identifier string) string {
	t.Helper()
	conn.EXPECT().CreateInstance(identifier).Return(obj, nil)
	result, err := srv.handleCreateInstance(t.Context(), toolReq(map[string]any{"identifier": identifier}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result), firstText(t, result))
	id, _ := decode(t, result)["runtime_id"].(string)
	require.NotEmpty(t, id)
	return id
}

// ─── handleCreateInstance ─────────────────────────────────────────────────────

func TestHandleCreateInstance(t *testing.T) {
	t.Run("success returns a handle and the resolved identity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "{00024500-0000-0000-C000-000000000046}")
		conn.EXPECT().CreateInstance("Excel.Application").Return(obj, nil)

		result, err := srv.handleCreateInstance(t.Context(), toolReq(map[string]any{"identifier": "Excel.Application"}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))

		m := decode(t, result)
		assert.EqualValues(t, uint32(comrt.S_OK), m["result"])
		assert.NotEmpty(t, m["runtime_id"])
		assert.Equal(t, "Excel.Application", m["prog_id"])
		assert.Equal(t, "{00024500-0000-0000-C000-000000000046}", m["clsid"])
		assert.Contains(t, m["message"], "S_OK")
	})

	t.Run("two creations yield distinct handles", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		a := createInstance(t, srv, conn, newMockObject(ctrl, "Excel.Application", ""), "Excel.Application")
		b := createInstance(t, srv, conn, newMockObject(ctrl, "Excel.Application", ""), "Excel.Application")
		assert.NotEqual(t, a, b)
	})

	t.Run("allowlist denial performs no instantiation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, _ := newTestServer(t, ctrl, WithPolicy(policy.New([]string{"Word.Application"})))
		// no CreateInstance expectation: the connector must not be touched.

		result, err := srv.handleCreateInstance(t.Context(), toolReq(map[string]any{"identifier": "Excel.Application"}))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))

		m := decode(t, result)
		assert.Equal(t, kindPermissionDenied, m["kind"])
		assert.EqualValues(t, uint32(comrt.E_ACCESSDENIED), m["result"])
	})

	t.Run("allowlisted identifier passes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl, WithPolicy(policy.New([]string{"Excel.Application"})))
		// case-insensitive match.
		obj := newMockObject(ctrl, "Excel.Application", "")
		conn.EXPECT().CreateInstance("excel.application").Return(obj, nil)

		result, err := srv.handleCreateInstance(t.Context(), toolReq(map[string]any{"identifier": "excel.application"}))
		require.NoError(t, err)
		assert.False(t, isErrorResult(result))
	})

	t.Run("instantiation failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		conn.EXPECT().CreateInstance("No.Such.ProgID").Return(nil, errors.New("Invalid class string"))

		result, err := srv.handleCreateInstance(t.Context(), toolReq(map[string]any{"identifier": "No.Such.ProgID"}))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))

		m := decode(t, result)
		assert.Equal(t, kindInstantiationError, m["kind"])
		assert.EqualValues(t, uint32(comrt.E_FAIL), m["result"])
		assert.Equal(t, 0, srv.reg.Len())
	})

	t.Run("missing identifier", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, _ := newTestServer(t, ctrl)
		result, err := srv.handleCreateInstance(t.Context(), toolReq(nil))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))
		assert.Equal(t, kindInvalidArgument, decode(t, result)["kind"])
	})
}

// ─── handleInvokeMethod ───────────────────────────────────────────────────────

func TestHandleInvokeMethod(t *testing.T) {
	t.Run("primitive return value", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "WScript.Shell", "")
		id := createInstance(t, srv, conn, obj, "WScript.Shell")

		obj.EXPECT().CallMethod("Run", "notepad.exe").Return(comrt.Result{Value: 0}, nil)

		result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"method":     "Run",
			"args":       []any{"notepad.exe"},
		}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))

		m := decode(t, result)
		assert.EqualValues(t, uint32(comrt.S_OK), m["result"])
		assert.Contains(t, m["message"], "Run")
	})

	t.Run("object return registers a new handle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		app := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, app, "Excel.Application")

		workbook := newMockObject(ctrl, "", "")
		app.EXPECT().CallMethod("Add").Return(comrt.Result{Object: workbook, TypeName: "Workbook"}, nil)

		result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"method":     "Add",
		}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))

		m := decode(t, result)
		newID, _ := m["runtime_id"].(string)
		assert.NotEmpty(t, newID)
		assert.NotEqual(t, id, newID)
		assert.Equal(t, "Workbook", m["type_name"])
		assert.Nil(t, m["value"])
		assert.Equal(t, 2, srv.reg.Len())
	})

	t.Run("member not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().CallMethod("Frobnicate").
			Return(comrt.Result{}, fmt.Errorf("Frobnicate: %w", comrt.ErrMemberNotFound))

		result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"method":     "Frobnicate",
		}))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))

		m := decode(t, result)
		assert.Equal(t, kindMemberNotFound, m["kind"])
		assert.EqualValues(t, uint32(comrt.DISP_E_MEMBERNOTFOUND), m["result"])
	})

	t.Run("argument mismatch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().CallMethod("SaveAs").
			Return(comrt.Result{}, fmt.Errorf("SaveAs: %w", comrt.ErrArgumentMismatch))

		result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"method":     "SaveAs",
		}))
		require.NoError(t, err)
		m := decode(t, result)
		assert.Equal(t, kindArgumentMismatch, m["kind"])
	})

	t.Run("unknown handle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, _ := newTestServer(t, ctrl)
		result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
			"runtime_id": "00000000-0000-0000-0000-000000000000",
			"method":     "Run",
		}))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))
		m := decode(t, result)
		assert.Equal(t, kindInvalidHandle, m["kind"])
		assert.EqualValues(t, uint32(comrt.E_INVALIDARG), m["result"])
	})

	t.Run("timeout surfaces OperationTimeout and keeps the handle alive", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl, WithCallTimeout(10*time.Millisecond))
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		release := make(chan struct{})
		obj.EXPECT().CallMethod("Quit").DoAndReturn(func(string, ...any) (comrt.Result, error) {
			<-release
			return comrt.Result{}, nil
		})

		result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"method":     "Quit",
		}))
		close(release)
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))
		assert.Equal(t, kindOperationTimeout, decode(t, result)["kind"])

		// the handle remains addressable after the late call drains.
		_, rerr := srv.reg.Resolve(id)
		assert.NoError(t, rerr)
	})

	t.Run("malformed args", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, _ := newTestServer(t, ctrl)
		result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
			"runtime_id": "x", "method": "Run", "args": "not-an-array",
		}))
		require.NoError(t, err)
		assert.Equal(t, kindInvalidArgument, decode(t, result)["kind"])
	})
}

// ─── handleGetProperty / handleSetProperty ────────────────────────────────────

func TestHandleGetProperty(t *testing.T) {
	t.Run("value property", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().GetProperty("Visible").Return(comrt.Result{Value: false}, nil)

		result, err := srv.handleGetProperty(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"property":   "Visible",
		}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))
		m := decode(t, result)
		assert.EqualValues(t, uint32(comrt.S_OK), m["result"])
	})

	t.Run("indexed object property chains a handle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		app := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, app, "Excel.Application")

		sheet := newMockObject(ctrl, "", "")
		app.EXPECT().GetProperty("Worksheets", "Sheet1").
			Return(comrt.Result{Object: sheet, TypeName: "Worksheet"}, nil)

		result, err := srv.handleGetProperty(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"property":   "Worksheets",
			"args":       []any{"Sheet1"},
		}))
		require.NoError(t, err)
		m := decode(t, result)
		assert.NotEmpty(t, m["runtime_id"])
		assert.Equal(t, "Worksheet", m["type_name"])
	})

	t.Run("unknown property", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().GetProperty("Bogus").
			Return(comrt.Result{}, fmt.Errorf("Bogus: %w", comrt.ErrMemberNotFound))

		result, err := srv.handleGetProperty(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"property":   "Bogus",
		}))
		require.NoError(t, err)
		assert.Equal(t, kindMemberNotFound, decode(t, result)["kind"])
	})
}

func TestHandleSetProperty(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().PutProperty("Visible", true).Return(nil)

		result, err := srv.handleSetProperty(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"property":   "Visible",
			"value":      true,
		}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))
		m := decode(t, result)
		assert.EqualValues(t, uint32(comrt.S_OK), m["result"])
		assert.Contains(t, m["message"], "Visible")
	})

	t.Run("missing value is a validation failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, _ := newTestServer(t, ctrl)
		result, err := srv.handleSetProperty(t.Context(), toolReq(map[string]any{
			"runtime_id": "x",
			"property":   "Visible",
		}))
		require.NoError(t, err)
		assert.Equal(t, kindInvalidArgument, decode(t, result)["kind"])
	})

	t.Run("explicit null is a legal value", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().PutProperty("Tag", nil).Return(nil)

		result, err := srv.handleSetProperty(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"property":   "Tag",
			"value":      nil,
		}))
		require.NoError(t, err)
		assert.False(t, isErrorResult(result))
	})
}

// ─── handleQueryInterface ─────────────────────────────────────────────────────

func TestHandleQueryInterface(t *testing.T) {
	t.Run("success registers the interface under a new handle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		iface := newMockObject(ctrl, "", "")
		obj.EXPECT().QueryInterface("IDispatch").Return(iface, nil)

		result, err := srv.handleQueryInterface(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"interface":  "IDispatch",
		}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))

		m := decode(t, result)
		newID, _ := m["runtime_id"].(string)
		assert.NotEmpty(t, newID)
		assert.NotEqual(t, id, newID)

		// the original handle is still live.
		_, rerr := srv.reg.Resolve(id)
		assert.NoError(t, rerr)
	})

	t.Run("unsupported interface", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().QueryInterface("{DEADBEEF-0000-0000-C000-000000000046}").
			Return(nil, fmt.Errorf("qi: %w", comrt.ErrInterfaceNotSupported))

		result, err := srv.handleQueryInterface(t.Context(), toolReq(map[string]any{
			"runtime_id": id,
			"interface":  "{DEADBEEF-0000-0000-C000-000000000046}",
		}))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))

		m := decode(t, result)
		assert.Equal(t, kindInterfaceNotSupported, m["kind"])
		assert.EqualValues(t, uint32(comrt.E_NOINTERFACE), m["result"])
		assert.Equal(t, 1, srv.reg.Len())
	})
}

// ─── handleGetTypeInfo ────────────────────────────────────────────────────────

func TestHandleGetTypeInfo(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv, conn := newTestServer(t, ctrl)
	obj := newMockObject(ctrl, "Excel.Application", "")
	id := createInstance(t, srv, conn, obj, "Excel.Application")

	obj.EXPECT().TypeInfo().Return([]comrt.Member{
		{Name: "Quit", Kind: "method", ParamCount: 0},
		{Name: "Visible", Kind: "property"},
		{Name: "Calculate", Kind: "method"},
	}, nil)

	result, err := srv.handleGetTypeInfo(t.Context(), toolReq(map[string]any{"runtime_id": id}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))

	m := decode(t, result)
	assert.Len(t, m["methods"], 2)
	assert.Len(t, m["properties"], 1)
}

// ─── handleDisposeInstance ────────────────────────────────────────────────────

func TestHandleDisposeInstance(t *testing.T) {
	t.Run("single handle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().Release().Return(nil)

		result, err := srv.handleDisposeInstance(t.Context(), toolReq(map[string]any{"runtime_id": id}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))

		m := decode(t, result)
		assert.EqualValues(t, uint32(comrt.S_OK), m["result"])
		assert.Equal(t, 0, srv.reg.Len())
	})

	t.Run("disposal is not idempotent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().Release().Return(nil)
		_, err := srv.handleDisposeInstance(t.Context(), toolReq(map[string]any{"runtime_id": id}))
		require.NoError(t, err)

		result, err := srv.handleDisposeInstance(t.Context(), toolReq(map[string]any{"runtime_id": id}))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result))

		m := decode(t, result)
		details, _ := m["disposed"].([]any)
		require.Len(t, details, 1)
		detail := details[0].(map[string]any)
		assert.Equal(t, kindInvalidHandle, detail["kind"])
	})

	t.Run("multiple handles with mixed outcomes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().Release().Return(nil)

		result, err := srv.handleDisposeInstance(t.Context(), toolReq(map[string]any{
			"runtime_ids": []any{id, "not-a-real-handle"},
		}))
		require.NoError(t, err)
		// partial success is reported structurally, not as a hard error.
		require.False(t, isErrorResult(result))

		m := decode(t, result)
		assert.EqualValues(t, uint32(comrt.E_FAIL), m["result"])
		details, _ := m["disposed"].([]any)
		require.Len(t, details, 2)
		first := details[0].(map[string]any)
		second := details[1].(map[string]any)
		assert.EqualValues(t, uint32(comrt.S_OK), first["result"])
		assert.Equal(t, kindInvalidHandle, second["kind"])
	})

	t.Run("release failure is a warning, handle is gone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		obj := newMockObject(ctrl, "Excel.Application", "")
		id := createInstance(t, srv, conn, obj, "Excel.Application")

		obj.EXPECT().Release().Return(errors.New("RPC server unavailable"))

		result, err := srv.handleDisposeInstance(t.Context(), toolReq(map[string]any{"runtime_id": id}))
		require.NoError(t, err)
		require.False(t, isErrorResult(result))

		m := decode(t, result)
		assert.EqualValues(t, uint32(comrt.S_OK), m["result"])
		details, _ := m["disposed"].([]any)
		require.Len(t, details, 1)
		detail := details[0].(map[string]any)
		assert.Equal(t, kindDisposalWarning, detail["kind"])
		assert.EqualValues(t, uint32(comrt.S_FALSE), detail["result"])
		assert.Equal(t, 0, srv.reg.Len())
	})

	t.Run("no handles given", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, _ := newTestServer(t, ctrl)
		result, err := srv.handleDisposeInstance(t.Context(), toolReq(nil))
		require.NoError(t, err)
		assert.Equal(t, kindInvalidArgument, decode(t, result)["kind"])
	})
}

// ─── handleListInstances ──────────────────────────────────────────────────────

func TestHandleListInstances(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, _ := newTestServer(t, ctrl)
		result, err := srv.handleListInstances(t.Context(), toolReq(nil))
		require.NoError(t, err)
		m := decode(t, result)
		assert.EqualValues(t, 0, m["count"])
	})

	t.Run("lists live instances with identity", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		srv, conn := newTestServer(t, ctrl)
		id1 := createInstance(t, srv, conn, newMockObject(ctrl, "Excel.Application", ""), "Excel.Application")
		id2 := createInstance(t, srv, conn, newMockObject(ctrl, "Word.Application", ""), "Word.Application")

		result, err := srv.handleListInstances(t.Context(), toolReq(nil))
		require.NoError(t, err)

		m := decode(t, result)
		assert.EqualValues(t, 2, m["count"])
		text := firstText(t, result)
		assert.Contains(t, text, id1)
		assert.Contains(t, text, id2)
		assert.Contains(t, text, "Excel.Application")
		assert.Contains(t, text, "Word.Application")
	})
}

// ─── end to end: object chaining ──────────────────────────────────────────────

// TestObjectChaining drives the Excel-style workflow through the tool
// handlers: application → workbook (object return) → read a property on the
// workbook → dispose both handles.
func TestObjectChaining(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv, conn := newTestServer(t, ctrl)

	app := newMockObject(ctrl, "Excel.Application", "")
	appID := createInstance(t, srv, conn, app, "Excel.Application")

	workbook := newMockObject(ctrl, "", "")
	app.EXPECT().CallMethod("Add").Return(comrt.Result{Object: workbook, TypeName: "Workbook"}, nil)

	result, err := srv.handleInvokeMethod(t.Context(), toolReq(map[string]any{
		"runtime_id": appID, "method": "Add",
	}))
	require.NoError(t, err)
	wbID, _ := decode(t, result)["runtime_id"].(string)
	require.NotEmpty(t, wbID)

	workbook.EXPECT().GetProperty("Name").Return(comrt.Result{Value: "Book1"}, nil)
	result, err = srv.handleGetProperty(t.Context(), toolReq(map[string]any{
		"runtime_id": wbID, "property": "Name",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Book1", decode(t, result)["value"])

	workbook.EXPECT().Release().Return(nil)
	app.EXPECT().Release().Return(nil)
	result, err = srv.handleDisposeInstance(t.Context(), toolReq(map[string]any{
		"runtime_ids": []any{wbID, appID},
	}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))
	assert.Equal(t, 0, srv.reg.Len())
}
