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

// Command combridge is an MCP server that exposes Windows COM automation
// objects to AI agents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/olebound/combridge/cmd/combridge/internal/cfg"
	"github.com/olebound/combridge/cmd/combridge/internal/golang/base"
	"github.com/olebound/combridge/cmd/combridge/internal/golang/help"
	"github.com/olebound/combridge/cmd/combridge/internal/serve"
)

// secrets defines the names of the supported secret files that we load our
// environment from.  Inexperienced windows users might have bad experience
// trying to create .env file with the notepad as it will battle for having
// the "txt" extension.  Let it have it.
var secrets = []string{".env", ".env.txt", "secrets.txt"}

func init() {
	base.Combridge.Commands = []*base.Command{
		serve.CmdServe,
		CmdVersion,
	}
}

func main() {
	loadSecrets(secrets)

	base.Usage = mainUsage
	flag.Usage = mainUsage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		mainUsage()
	}

	base.CmdName = args[0]
	if args[0] == "help" {
		help.Help(os.Stdout, args[1:])
		base.Exit()
		return
	}

	for _, cmd := range base.Combridge.Commands {
		if cmd.Name() != args[0] || !cmd.Runnable() {
			continue
		}
		invoke(cmd, args)
		base.Exit()
		return
	}

	fmt.Fprintf(os.Stderr, "combridge %s: unknown command\nRun 'combridge help' for usage.\n", args[0])
	base.SetExitStatus(base.SInvalidParameters)
	base.Exit()
}

func mainUsage() {
	help.PrintUsage(os.Stderr, base.Combridge)
	base.SetExitStatus(base.SInvalidParameters)
	base.Exit()
}

// invoke parses the command flags, initialises logging and tracing, and runs
// the command.
func invoke(cmd *base.Command, args []string) {
	cmd.Flag.Usage = cmd.Usage
	if cmd.CustomFlags {
		args = args[1:]
	} else {
		cfg.SetBaseFlags(&cmd.Flag, cmd.FlagMask)
		if err := cmd.Flag.Parse(args[1:]); err != nil {
			base.SetExitStatus(base.SInvalidParameters)
			return
		}
		args = cmd.Flag.Args()
	}

	lg, err := initLog(cfg.LogFile, cfg.JsonLog, cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "combridge: %s\n", err)
		base.SetExitStatus(base.SInitializationError)
		return
	}
	cfg.Log = lg

	stopTrace := initTrace(cfg.TraceFile)
	base.AtExit(stopTrace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, cmd, args); err != nil {
		lg.Error("command failed", "command", cmd.Name(), "error", err)
		base.SetExitStatus(base.SApplicationError)
	}
}

// loadSecrets loads the environment from the files in the secrets slice.
func loadSecrets(files []string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}
