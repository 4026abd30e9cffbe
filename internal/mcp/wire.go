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

// In this file: the tool response wire shapes and the error taxonomy.
//
// Every tool answers with a JSON document that carries the numeric HRESULT
// in "result", its symbolic rendering in "message" and, on failure, a
// machine-readable "kind".  Agents branch on kind; humans read message.

import (
	"encoding/json"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/olebound/combridge/internal/bridge"
	"github.com/olebound/combridge/internal/comrt"
	"github.com/olebound/combridge/internal/registry"
)

// Failure kinds.  Stable strings: connected agents dispatch on them.
const (
	kindPermissionDenied      = "PermissionDenied"
	kindInstantiationError    = "InstantiationError"
	kindInvalidHandle         = "InvalidHandle"
	kindInvalidArgument       = "InvalidArgument"
	kindMemberNotFound        = "MemberNotFound"
	kindArgumentMismatch      = "ArgumentMismatch"
	kindInterfaceNotSupported = "InterfaceNotSupported"
	kindCOMInvocationError    = "COMInvocationError"
	kindOperationTimeout      = "OperationTimeout"
	kindDisposalWarning       = "DisposalWarning"
)

// classify maps an error from the registry, bridge or COM runtime layers to
// its failure kind and HRESULT.  Unrecognised errors fall into the generic
// COMInvocationError bucket with E_FAIL, matching what IDispatch reports for
// unspecified automation failures.
func classify(err error) (kind string, hr comrt.HRESULT) {
	var warn *registry.DisposalWarning
	switch {
	case errors.Is(err, registry.ErrPermissionDenied):
		return kindPermissionDenied, comrt.E_ACCESSDENIED
	case errors.Is(err, registry.ErrInstantiation):
		return kindInstantiationError, comrt.E_FAIL
	case errors.Is(err, registry.ErrInvalidHandle):
		return kindInvalidHandle, comrt.E_INVALIDARG
	case errors.Is(err, comrt.ErrMemberNotFound):
		return kindMemberNotFound, comrt.DISP_E_MEMBERNOTFOUND
	case errors.Is(err, comrt.ErrArgumentMismatch):
		return kindArgumentMismatch, comrt.DISP_E_TYPEMISMATCH
	case errors.Is(err, comrt.ErrInterfaceNotSupported):
		return kindInterfaceNotSupported, comrt.E_NOINTERFACE
	case errors.Is(err, bridge.ErrOperationTimeout):
		return kindOperationTimeout, comrt.E_FAIL
	case errors.As(err, &warn):
		return kindDisposalWarning, comrt.S_FALSE
	default:
		return kindCOMInvocationError, comrt.E_FAIL
	}
}

// response is the envelope common to all tool replies.
type response struct {
	Result  uint32 `json:"result"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// okResponse builds a success envelope.  The message is prefixed with the
// symbolic HRESULT, e.g. "S_OK (0x00000000): Successfully created ...".
func okResponse(format string, a ...any) response {
	return response{
		Result:  uint32(comrt.S_OK),
		Message: fmt.Sprintf("%s: %s", comrt.S_OK, fmt.Sprintf(format, a...)),
	}
}

// errResponse builds a failure envelope from a classified error.
func errResponse(err error) response {
	kind, hr := classify(err)
	return response{
		Result:  uint32(hr),
		Kind:    kind,
		Message: fmt.Sprintf("%s: %v", hr, err),
	}
}

// createResponse is the create_instance reply.
type createResponse struct {
	response
	RuntimeID string `json:"runtime_id,omitempty"`
	ProgID    string `json:"prog_id,omitempty"`
	CLSID     string `json:"clsid,omitempty"`
}

// valueResponse is the invoke_method / get_property reply.  Exactly one of
// the value and runtime_id branches is populated: a COM-object return is
// registered under a fresh handle and never serialised.
type valueResponse struct {
	response
	Value     any    `json:"value,omitempty"`
	RuntimeID string `json:"runtime_id,omitempty"`
	TypeName  string `json:"type_name,omitempty"`
}

// typeInfoResponse is the get_type_info reply.
type typeInfoResponse struct {
	response
	Methods    []comrt.Member `json:"methods"`
	Properties []comrt.Member `json:"properties"`
}

// disposeDetail is the per-handle outcome inside a dispose_instance reply.
type disposeDetail struct {
	RuntimeID string `json:"runtime_id"`
	Result    uint32 `json:"result"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
}

// disposeResponse is the dispose_instance reply.
type disposeResponse struct {
	response
	Disposed []disposeDetail `json:"disposed"`
}

// instanceSummary is one live instance in a list_instances reply.
type instanceSummary struct {
	RuntimeID  string `json:"runtime_id"`
	Identifier string `json:"identifier"`
	ProgID     string `json:"prog_id,omitempty"`
	CLSID      string `json:"clsid,omitempty"`
	Created    string `json:"created"`
	Age        string `json:"age"`
}

// listResponse is the list_instances reply.
type listResponse struct {
	response
	Count     int               `json:"count"`
	Instances []instanceSummary `json:"instances"`
}

// resultFailure serialises a failure envelope into a CallToolResult with
// IsError set.  The structured body still reaches the agent: MCP carries
// error content as text.
func resultFailure(v any) *mcplib.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		// Unreachable for the response types above; degrade to plain text.
		return &mcplib.CallToolResult{
			Content: []mcplib.Content{mcplib.NewTextContent(fmt.Sprintf("%v", v))},
			IsError: true,
		}
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
		IsError: true,
	}
}

// resultErrorf reports a tool-surface validation failure (bad or missing
// arguments detected before any COM work happens).
func resultErrorf(format string, a ...any) *mcplib.CallToolResult {
	return resultFailure(response{
		Result:  uint32(comrt.E_INVALIDARG),
		Kind:    kindInvalidArgument,
		Message: fmt.Sprintf("%s: %s", comrt.E_INVALIDARG, fmt.Sprintf(format, a...)),
	})
}
