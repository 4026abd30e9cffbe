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

// In this file: MCP tool definitions and handler implementations.

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/olebound/combridge/internal/bridge"
	"github.com/olebound/combridge/internal/comrt"
)

// validate checks tool argument structs before any COM work happens.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ─── create_instance ──────────────────────────────────────────────────────────

// createArgs are the create_instance arguments.
type createArgs struct {
	Identifier string `validate:"required"`
}

func (s *Server) toolCreateInstance() mcpsrv.ServerTool {
	tool := mcplib.NewTool("create_instance",
		mcplib.WithDescription(`Create an instance of a COM object and register it under a runtime_id.

The identifier is a ProgID such as "Excel.Application" or "WScript.Shell",
or a CLSID such as "{0002DF01-0000-0000-C000-000000000046}".  The returned
runtime_id is the handle for all subsequent invoke_method, get_property,
set_property, query_interface, get_type_info and dispose_instance calls.

If the server is configured with an allowlist, identifiers outside of it are
rejected with PermissionDenied before any instantiation takes place.`),
		mcplib.WithString("identifier",
			mcplib.Description(`ProgID (e.g. "Excel.Application") or CLSID (e.g. "{0002DF01-0000-0000-C000-000000000046}") of the COM class to instantiate.`),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleCreateInstance}
}

func (s *Server) handleCreateInstance(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	args := createArgs{}
	args.Identifier, _ = stringArg(req, "identifier")
	if err := validate.Struct(args); err != nil {
		return resultErrorf("create_instance: identifier is required"), nil
	}

	info, err := s.reg.Create(ctx, args.Identifier)
	if err != nil {
		s.logger.WarnContext(ctx, "mcp: create_instance failed", "identifier", args.Identifier, "error", err)
		return resultFailure(errResponse(err)), nil
	}

	return resultJSON(createResponse{
		response:  okResponse("Successfully created COM object: %s", args.Identifier),
		RuntimeID: info.Handle,
		ProgID:    info.ProgID,
		CLSID:     info.CLSID,
	})
}

// ─── invoke_method ────────────────────────────────────────────────────────────

type invokeArgs struct {
	RuntimeID string `validate:"required"`
	Method    string `validate:"required"`
	Args      []any
}

func (s *Server) toolInvokeMethod() mcpsrv.ServerTool {
	tool := mcplib.NewTool("invoke_method",
		mcplib.WithDescription(`Invoke a method on a registered COM object by name (late-bound).

Arguments are passed positionally.  Primitive return values (numbers,
strings, booleans, dates, arrays of primitives) come back in "value".  When
the method returns another COM object, the object is registered under a new
runtime_id which is returned instead; use it for further calls.`),
		mcplib.WithString("runtime_id",
			mcplib.Description("Handle of the object, as returned by create_instance or an earlier object-returning call."),
			mcplib.Required(),
		),
		mcplib.WithString("method",
			mcplib.Description(`Name of the method to invoke (e.g. "Run", "Add", "SaveAs").`),
			mcplib.Required(),
		),
		mcplib.WithArray("args",
			mcplib.Description("Positional arguments for the method. Omit for parameterless methods."),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleInvokeMethod}
}

func (s *Server) handleInvokeMethod(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var args invokeArgs
	args.RuntimeID, _ = stringArg(req, "runtime_id")
	args.Method, _ = stringArg(req, "method")
	var ok bool
	if args.Args, ok = arrayArg(req, "args"); !ok {
		return resultErrorf("invoke_method: args must be an array"), nil
	}
	if err := validate.Struct(args); err != nil {
		return resultErrorf("invoke_method: runtime_id and method are required"), nil
	}

	res, err := s.bridge.Perform(ctx, bridge.Request{
		Handle: args.RuntimeID,
		Op:     bridge.OpInvoke,
		Member: args.Method,
		Args:   args.Args,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "mcp: invoke_method failed",
			"runtime_id", args.RuntimeID, "method", args.Method, "error", err)
		return resultFailure(errResponse(err)), nil
	}

	if res.IsObject() {
		return resultJSON(valueResponse{
			response:  okResponse("Method %s returned a COM object; it is registered under the returned runtime_id.", args.Method),
			RuntimeID: res.Handle,
			TypeName:  res.TypeName,
		})
	}
	return resultJSON(valueResponse{
		response: okResponse("Successfully invoked method: %s", args.Method),
		Value:    res.Value,
	})
}

// ─── get_property ─────────────────────────────────────────────────────────────

type getPropertyArgs struct {
	RuntimeID string `validate:"required"`
	Property  string `validate:"required"`
	Args      []any
}

func (s *Server) toolGetProperty() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_property",
		mcplib.WithDescription(`Read a property of a registered COM object by name.

Indexed properties (e.g. Item) take their index values in "args".  As with
invoke_method, an object-valued property comes back as a new runtime_id
rather than a serialised value.`),
		mcplib.WithString("runtime_id",
			mcplib.Description("Handle of the object."),
			mcplib.Required(),
		),
		mcplib.WithString("property",
			mcplib.Description(`Name of the property to read (e.g. "Visible", "Count", "Name").`),
			mcplib.Required(),
		),
		mcplib.WithArray("args",
			mcplib.Description(`Index arguments for indexed properties (e.g. ["Sheet1"] for Worksheets.Item). Usually omitted.`),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetProperty}
}

func (s *Server) handleGetProperty(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var args getPropertyArgs
	args.RuntimeID, _ = stringArg(req, "runtime_id")
	args.Property, _ = stringArg(req, "property")
	var ok bool
	if args.Args, ok = arrayArg(req, "args"); !ok {
		return resultErrorf("get_property: args must be an array"), nil
	}
	if err := validate.Struct(args); err != nil {
		return resultErrorf("get_property: runtime_id and property are required"), nil
	}

	res, err := s.bridge.Perform(ctx, bridge.Request{
		Handle: args.RuntimeID,
		Op:     bridge.OpGet,
		Member: args.Property,
		Args:   args.Args,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "mcp: get_property failed",
			"runtime_id", args.RuntimeID, "property", args.Property, "error", err)
		return resultFailure(errResponse(err)), nil
	}

	if res.IsObject() {
		return resultJSON(valueResponse{
			response:  okResponse("Property %s holds a COM object; it is registered under the returned runtime_id.", args.Property),
			RuntimeID: res.Handle,
			TypeName:  res.TypeName,
		})
	}
	return resultJSON(valueResponse{
		response: okResponse("Successfully retrieved property: %s", args.Property),
		Value:    res.Value,
	})
}

// ─── set_property ─────────────────────────────────────────────────────────────

type setPropertyArgs struct {
	RuntimeID string `validate:"required"`
	Property  string `validate:"required"`
}

func (s *Server) toolSetProperty() mcpsrv.ServerTool {
	tool := mcplib.NewTool("set_property",
		mcplib.WithDescription(`Write a property of a registered COM object by name.

The value may be a number, string, boolean or null.  On success the reply is
a bare acknowledgement; read the property back if you need the effective
value.`),
		mcplib.WithString("runtime_id",
			mcplib.Description("Handle of the object."),
			mcplib.Required(),
		),
		mcplib.WithString("property",
			mcplib.Description(`Name of the property to write (e.g. "Visible").`),
			mcplib.Required(),
		),
		mcplib.WithString("value",
			mcplib.Description("New value for the property. Numbers, strings, booleans and null are accepted."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleSetProperty}
}

func (s *Server) handleSetProperty(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var args setPropertyArgs
	args.RuntimeID, _ = stringArg(req, "runtime_id")
	args.Property, _ = stringArg(req, "property")
	value, present := anyArg(req, "value")
	if err := validate.Struct(args); err != nil || !present {
		return resultErrorf("set_property: runtime_id, property and value are required"), nil
	}

	_, err := s.bridge.Perform(ctx, bridge.Request{
		Handle: args.RuntimeID,
		Op:     bridge.OpSet,
		Member: args.Property,
		Value:  value,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "mcp: set_property failed",
			"runtime_id", args.RuntimeID, "property", args.Property, "error", err)
		return resultFailure(errResponse(err)), nil
	}

	return resultJSON(okResponse("Successfully set property: %s", args.Property))
}

// ─── query_interface ──────────────────────────────────────────────────────────

type queryInterfaceArgs struct {
	RuntimeID string `validate:"required"`
	Interface string `validate:"required"`
}

func (s *Server) toolQueryInterface() mcpsrv.ServerTool {
	tool := mcplib.NewTool("query_interface",
		mcplib.WithDescription(`Ask a registered COM object for one of its interfaces.

The interface is named by IID (e.g. "{00020400-0000-0000-C000-000000000046}")
or by a well-known name such as "IDispatch".  On success the interface
pointer is registered under a NEW runtime_id; the original handle stays
valid and must still be disposed separately.`),
		mcplib.WithString("runtime_id",
			mcplib.Description("Handle of the object."),
			mcplib.Required(),
		),
		mcplib.WithString("interface",
			mcplib.Description(`IID in registry format or a well-known interface name (e.g. "IDispatch").`),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleQueryInterface}
}

func (s *Server) handleQueryInterface(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var args queryInterfaceArgs
	args.RuntimeID, _ = stringArg(req, "runtime_id")
	args.Interface, _ = stringArg(req, "interface")
	if err := validate.Struct(args); err != nil {
		return resultErrorf("query_interface: runtime_id and interface are required"), nil
	}

	res, err := s.bridge.Perform(ctx, bridge.Request{
		Handle:    args.RuntimeID,
		Op:        bridge.OpQueryInterface,
		Interface: args.Interface,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "mcp: query_interface failed",
			"runtime_id", args.RuntimeID, "interface", args.Interface, "error", err)
		return resultFailure(errResponse(err)), nil
	}

	return resultJSON(valueResponse{
		response:  okResponse("Successfully obtained interface: %s", args.Interface),
		RuntimeID: res.Handle,
		TypeName:  res.TypeName,
	})
}

// ─── get_type_info ────────────────────────────────────────────────────────────

type typeInfoArgs struct {
	RuntimeID string `validate:"required"`
}

func (s *Server) toolGetTypeInfo() mcpsrv.ServerTool {
	tool := mcplib.NewTool("get_type_info",
		mcplib.WithDescription(`List the methods and properties of a registered COM object.

Enumeration is best-effort: late-bound objects without type information
yield empty lists, which does not mean the object has no members, only that
the object does not describe itself.`),
		mcplib.WithString("runtime_id",
			mcplib.Description("Handle of the object."),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleGetTypeInfo}
}

func (s *Server) handleGetTypeInfo(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	var args typeInfoArgs
	args.RuntimeID, _ = stringArg(req, "runtime_id")
	if err := validate.Struct(args); err != nil {
		return resultErrorf("get_type_info: runtime_id is required"), nil
	}

	res, err := s.bridge.Perform(ctx, bridge.Request{
		Handle: args.RuntimeID,
		Op:     bridge.OpTypeInfo,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "mcp: get_type_info failed", "runtime_id", args.RuntimeID, "error", err)
		return resultFailure(errResponse(err)), nil
	}

	methods := make([]comrt.Member, 0, len(res.Members))
	properties := make([]comrt.Member, 0, len(res.Members))
	for _, m := range res.Members {
		if m.Kind == "property" {
			properties = append(properties, m)
		} else {
			methods = append(methods, m)
		}
	}
	return resultJSON(typeInfoResponse{
		response:   okResponse("Successfully retrieved type information."),
		Methods:    methods,
		Properties: properties,
	})
}

// ─── dispose_instance ─────────────────────────────────────────────────────────

func (s *Server) toolDisposeInstance() mcpsrv.ServerTool {
	tool := mcplib.NewTool("dispose_instance",
		mcplib.WithDescription(`Release one or more registered COM objects and invalidate their handles.

Pass a single handle in "runtime_id" or several in "runtime_ids".  Each
handle is reported on individually; disposing an unknown or already-disposed
handle fails for that handle with InvalidHandle.  Disposal is not recursive:
handles obtained by chaining from the disposed object must be disposed
themselves.`),
		mcplib.WithString("runtime_id",
			mcplib.Description("Handle to release. Use this or runtime_ids."),
		),
		mcplib.WithArray("runtime_ids",
			mcplib.Description("Handles to release in one call."),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleDisposeInstance}
}

func (s *Server) handleDisposeInstance(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	handles, err := disposeHandles(req)
	if err != nil {
		return resultErrorf("dispose_instance: %v", err), nil
	}

	details := make([]disposeDetail, 0, len(handles))
	failed := 0
	for _, h := range handles {
		if err := s.reg.Dispose(h); err != nil {
			kind, hr := classify(err)
			if kind != kindDisposalWarning {
				failed++
			}
			details = append(details, disposeDetail{
				RuntimeID: h,
				Result:    uint32(hr),
				Kind:      kind,
				Message:   err.Error(),
			})
			s.logger.WarnContext(ctx, "mcp: dispose_instance", "runtime_id", h, "error", err)
			continue
		}
		details = append(details, disposeDetail{
			RuntimeID: h,
			Result:    uint32(comrt.S_OK),
			Message:   "disposed",
		})
	}

	resp := disposeResponse{
		response: okResponse("Disposed %d of %d object(s).", len(handles)-failed, len(handles)),
		Disposed: details,
	}
	if failed > 0 {
		resp.response = response{
			Result:  uint32(comrt.E_FAIL),
			Message: comrt.E_FAIL.String() + ": one or more handles could not be disposed; see details",
		}
	}
	if failed == len(handles) {
		// Nothing was disposed at all: report a hard error.
		return resultFailure(resp), nil
	}
	return resultJSON(resp)
}

// disposeHandles extracts the handle list from either form of the
// dispose_instance arguments.
func disposeHandles(req mcplib.CallToolRequest) ([]string, error) {
	var handles []string
	if h, ok := stringArg(req, "runtime_id"); ok && h != "" {
		handles = append(handles, h)
	}
	list, ok := arrayArg(req, "runtime_ids")
	if !ok {
		return nil, errInvalidHandleList
	}
	for _, v := range list {
		h, ok := v.(string)
		if !ok || h == "" {
			return nil, errInvalidHandleList
		}
		handles = append(handles, h)
	}
	if len(handles) == 0 {
		return nil, errNoHandles
	}
	return handles, nil
}

var (
	errNoHandles         = errValue("runtime_id or runtime_ids is required")
	errInvalidHandleList = errValue("runtime_ids must be an array of handle strings")
)

// errValue is a trivial constant-string error.
type errValue string

func (e errValue) Error() string { return string(e) }

// ─── list_instances ───────────────────────────────────────────────────────────

func (s *Server) toolListInstances() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_instances",
		mcplib.WithDescription("List all live COM object instances registered on this server, with their handles, identifiers and creation times."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListInstances}
}

func (s *Server) handleListInstances(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	infos := s.reg.List()
	summaries := make([]instanceSummary, 0, len(infos))
	for _, info := range infos {
		summaries = append(summaries, instanceSummary{
			RuntimeID:  info.Handle,
			Identifier: info.Identifier,
			ProgID:     info.ProgID,
			CLSID:      info.CLSID,
			Created:    info.Created.Format(time.RFC3339),
			Age:        humanize.Time(info.Created),
		})
	}
	return resultJSON(listResponse{
		response:  okResponse("%d live instance(s).", len(summaries)),
		Count:     len(summaries),
		Instances: summaries,
	})
}
