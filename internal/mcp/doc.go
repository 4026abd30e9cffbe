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

// Package mcp implements the Model Context Protocol (MCP) server of
// combridge.  It exposes Windows COM automation objects through MCP tools
// that AI agents can call: creating instances by ProgID or CLSID, invoking
// methods and properties late-bound, narrowing interfaces, enumerating type
// information and managing instance lifetime through opaque runtime_id
// handles.
//
// Every tool reply is a JSON document with an HRESULT-style "result" code
// and a human-readable "message"; failures additionally carry a stable
// "kind" string that agents can branch on (PermissionDenied, InvalidHandle,
// MemberNotFound, ...).  COM objects returned by calls are never serialised:
// they are registered and returned as new handles, so object graphs can be
// walked across tool calls.
//
// Transport: the server supports two transports selectable at runtime:
//   - stdio: standard MCP stdio transport (default); suitable for local
//     agent integration (e.g. Claude Desktop, VS Code Copilot).
//   - http: Streamable HTTP transport; suitable for remote agents or when
//     multiple concurrent clients are needed.
package mcp
