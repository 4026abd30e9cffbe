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

// Package serve contains the CLI command for starting the combridge MCP
// server.
package serve

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"

	"github.com/olebound/combridge/cmd/combridge/internal/cfg"
	"github.com/olebound/combridge/cmd/combridge/internal/golang/base"
	"github.com/olebound/combridge/internal/comrt"
	internalmcp "github.com/olebound/combridge/internal/mcp"
	"github.com/olebound/combridge/internal/policy"
)

//go:embed assets/serve.md
var mdServe string

// CmdServe is the "combridge serve" command.
var CmdServe = &base.Command{
	UsageLine:  "combridge serve [flags]",
	Short:      "start the MCP COM bridge server",
	Long:       mdServe,
	FlagMask:   base.DefaultFlags,
	PrintFlags: true,
	Run:        runServe,
}

var (
	transport  string
	listenAddr string
)

func init() {
	CmdServe.Flag.StringVar(&transport, "transport", "stdio", "MCP transport: \"stdio\" or \"http\"")
	CmdServe.Flag.StringVar(&listenAddr, "listen", "127.0.0.1:8721", "address to listen on when -transport=http")
}

func runServe(ctx context.Context, cmd *base.Command, args []string) error {
	lg := cfg.Log

	pol, err := assemblePolicy()
	if err != nil {
		base.SetExitStatus(base.SInvalidParameters)
		return err
	}
	if pol.Empty() {
		lg.Warn("SECURITY: no allowlist is configured, ANY registered COM class on this machine can be instantiated by the connected agent; use -allow, -allow-file or COM_ALLOWLIST to restrict")
		if strings.EqualFold(transport, string(internalmcp.TransportHTTP)) && term.IsTerminal(int(os.Stdin.Fd())) {
			if !base.YesNo("serve over HTTP without an allowlist") {
				base.SetExitStatus(base.SUserError)
				return base.ErrOpCancelled
			}
		}
	} else {
		lg.Info("allowlist active", "entries", pol.Len())
	}

	opts := []internalmcp.Option{
		internalmcp.WithLogger(lg),
		internalmcp.WithPolicy(pol),
		internalmcp.WithCallTimeout(cfg.CallTimeout),
	}

	conn, err := comrt.NewConnector()
	if err != nil {
		if !errors.Is(err, comrt.ErrUnsupportedPlatform) {
			base.SetExitStatus(base.SInitializationError)
			return fmt.Errorf("serve: COM runtime: %w", err)
		}
		lg.Warn("COM runtime is not available on this platform; create_instance calls will fail", "error", err)
	} else {
		opts = append(opts, internalmcp.WithConnector(conn))
	}

	srv := internalmcp.New(opts...)
	defer func() {
		if err := srv.Close(); err != nil {
			lg.Warn("serve: shutdown", "error", err)
		}
	}()

	switch strings.ToLower(transport) {
	case string(internalmcp.TransportStdio), "":
		return srv.ServeStdio(ctx)
	case string(internalmcp.TransportHTTP):
		lg.InfoContext(ctx, "serve: http transport", "addr", listenAddr)
		return srv.ServeHTTP(ctx, listenAddr)
	default:
		base.SetExitStatus(base.SInvalidParameters)
		return fmt.Errorf("serve: unknown transport %q (use \"stdio\" or \"http\")", transport)
	}
}

// assemblePolicy merges allowlist entries from the -allow flag, the
// COM_ALLOWLIST environment variable and the -allow-file TOML file.
func assemblePolicy() (*policy.Policy, error) {
	entries := slices.Concat([]string(cfg.Allowlist), cfg.EnvAllowlist())
	if cfg.AllowlistFile != "" {
		more, err := policy.LoadFile(cfg.AllowlistFile)
		if err != nil {
			return nil, fmt.Errorf("serve: %w", err)
		}
		entries = append(entries, more...)
	}
	return policy.New(entries), nil
}
