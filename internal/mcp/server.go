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

// In this file: MCP server construction and transport management.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/olebound/combridge/internal/bridge"
	"github.com/olebound/combridge/internal/comrt"
	"github.com/olebound/combridge/internal/policy"
	"github.com/olebound/combridge/internal/registry"
)

const (
	serverName    = "combridge"
	serverVersion = "1.0.0"
)

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportStdio uses stdin/stdout for communication (default, suitable
	// for local agent integrations such as Claude Desktop).
	TransportStdio Transport = "stdio"
	// TransportHTTP uses Streamable HTTP transport (suitable for remote
	// agents or when multiple concurrent clients are needed).
	TransportHTTP Transport = "http"
)

// Server wraps an MCP server around the instance registry and the
// invocation bridge.
type Server struct {
	mcp     *mcpsrv.MCPServer
	conn    comrt.Connector
	reg     *registry.Registry
	bridge  *bridge.Bridge
	pol     *policy.Policy
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.  The default is slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithConnector sets the COM runtime connector.  A server constructed
// without one refuses every create_instance call, which is the only useful
// behaviour on platforms without a COM runtime.
func WithConnector(conn comrt.Connector) Option {
	return func(s *Server) {
		if conn != nil {
			s.conn = conn
		}
	}
}

// WithPolicy sets the allowlist policy.  The default is an empty policy,
// which permits every identifier.
func WithPolicy(pol *policy.Policy) Option {
	return func(s *Server) {
		if pol != nil {
			s.pol = pol
		}
	}
}

// WithCallTimeout bounds every individual COM call.  Zero, the default,
// leaves calls unbounded.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a combridge MCP server.  The server is populated with all
// tools and demo resources but does not start listening until one of the
// Serve* methods is called.
func New(opt ...Option) *Server {
	s := &Server{
		conn:   unavailableConnector{},
		pol:    policy.New(nil),
		logger: slog.Default(),
	}
	for _, o := range opt {
		o(s)
	}
	s.reg = registry.New(s.conn, s.pol, s.logger)
	s.bridge = bridge.New(s.reg, s.timeout, s.logger)

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions(s.pol)),
	)

	// Register all tools.
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}

	s.mcp = mcpServer
	s.addResources()
	return s
}

// instructions returns the server instructions that describe the bridge to
// the connecting agent.
func instructions(pol *policy.Policy) string {
	gate := "No allowlist is configured: any registered COM class may be instantiated."
	if !pol.Empty() {
		gate = fmt.Sprintf("An allowlist with %d entries is active; create_instance calls for other classes fail with PermissionDenied.", pol.Len())
	}
	return fmt.Sprintf(`You are connected to a combridge MCP server, a bridge to Windows COM
automation (Excel, Word, Outlook, Shell, SAPI, WMI and any other registered
COM class).

Workflow:
- create_instance takes a ProgID (e.g. "Excel.Application") or CLSID and
  returns a runtime_id handle.
- invoke_method, get_property and set_property operate on a handle.  When a
  call returns another COM object, that object is registered under a NEW
  runtime_id which is returned in place of a value; use the new handle to
  keep driving the nested object (Excel.Application -> Workbooks -> Add()
  -> a Workbook handle).
- query_interface narrows a handle to a named interface under a new
  runtime_id.  get_type_info lists an object's methods and properties.
- dispose_instance releases handles; list_instances shows what is live.
  Only dispose an application object when the user wants it closed.

%s`, gate)
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
// This is the standard transport used by local agent integrations.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr until
// ctx is cancelled.  addr should be a host:port string such as
// "127.0.0.1:8721".  The MCP endpoint is mounted at /mcp; /healthcheck
// reports liveness and the live instance count.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/healthcheck", s.healthcheck)
	r.Mount("/mcp", streamSrv)

	httpSrv := &http.Server{Addr: addr, Handler: r}
	s.logger.InfoContext(ctx, "mcp server listening on http", "addr", addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcp http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("mcp server shutting down")
		if err := httpSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"instances": s.reg.Len(),
	})
}

// Close releases every live instance and shuts the COM runtime down.
func (s *Server) Close() error {
	if err := s.reg.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolCreateInstance(),
		s.toolInvokeMethod(),
		s.toolGetProperty(),
		s.toolSetProperty(),
		s.toolQueryInterface(),
		s.toolGetTypeInfo(),
		s.toolDisposeInstance(),
		s.toolListInstances(),
	}
}

// AddTool adds an additional tool to the MCP server.  This can be called
// after New but before serving starts.
func (s *Server) AddTool(tool mcpsrv.ServerTool) {
	s.mcp.AddTool(tool.Tool, tool.Handler)
}

// unavailableConnector backs a server constructed without a connector; it
// refuses every instantiation.
type unavailableConnector struct{}

func (unavailableConnector) CreateInstance(string) (comrt.Object, error) {
	return nil, comrt.ErrUnsupportedPlatform
}

func (unavailableConnector) Close() error { return nil }

// resultJSON is a helper that serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// anyArg extracts a named argument of any type from a tool call request.
// The second return distinguishes an explicit null from an absent key.
func anyArg(req mcplib.CallToolRequest, name string) (any, bool) {
	args := req.GetArguments()
	if args == nil {
		return nil, false
	}
	v, ok := args[name]
	return v, ok
}

// arrayArg extracts a named array argument from a tool call request.  An
// absent argument yields (nil, true): tools treat it as an empty list.
func arrayArg(req mcplib.CallToolRequest, name string) ([]any, bool) {
	v, ok := anyArg(req, name)
	if !ok || v == nil {
		return nil, true
	}
	a, ok := v.([]any)
	return a, ok
}
