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

// Package cfg contains common configuration variables.
package cfg

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/rusq/osenv/v2"

	"github.com/olebound/combridge/cmd/combridge/internal/golang/base"
)

var (
	TraceFile string
	LogFile   string
	JsonLog   bool
	Verbose   bool

	// Allowlist holds the COM class identifiers permitted for
	// create_instance, as given on the command line.
	Allowlist StringSlice
	// AllowlistFile is a TOML file with additional allowlist entries.
	AllowlistFile string
	// CallTimeout bounds each individual COM call.  Zero disables the bound.
	CallTimeout time.Duration

	// Log is the package-wide logger.  Initialised to slog.Default and
	// replaced by main once the log flags are known.
	Log = slog.Default()
)

const allowlistEnv = "COM_ALLOWLIST"

// SetBaseFlags sets the flags common to all commands, except those masked
// out.
func SetBaseFlags(fs *flag.FlagSet, mask base.FlagMask) {
	fs.StringVar(&TraceFile, "trace", os.Getenv("TRACE_FILE"), "trace `filename`")
	fs.StringVar(&LogFile, "log", os.Getenv("LOG_FILE"), "log `file`, if not specified, messages are printed to STDERR")
	fs.BoolVar(&JsonLog, "log-json", osenv.Value("JSON_LOG", false), "log in JSON format")
	fs.BoolVar(&Verbose, "v", osenv.Value("DEBUG", false), "verbose messages")

	if mask&base.OmitBridgeFlags == 0 {
		fs.Var(&Allowlist, "allow", "comma-separated `list` of ProgIDs/CLSIDs permitted for instantiation\n(environment: "+allowlistEnv+"). An empty allowlist permits everything.")
		fs.StringVar(&AllowlistFile, "allow-file", osenv.Value("COM_ALLOWLIST_FILE", ""), "TOML `file` with allowlist entries (merged with -allow and the environment)")
		fs.DurationVar(&CallTimeout, "call-timeout", envDuration("COM_CALL_TIMEOUT", 0), "per-call `timeout` for COM operations, 0 to disable")
	}
}

// EnvAllowlist returns the allowlist entries from the environment variable,
// if set.
func EnvAllowlist() []string {
	var ss StringSlice
	if v := os.Getenv(allowlistEnv); v != "" {
		// Set never fails for StringSlice.
		_ = ss.Set(v)
	}
	return ss
}

// envDuration parses a duration from the environment, falling back to def on
// absence or a parse error.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// SetDebugLevel switches the default logger to debug level.
func SetDebugLevel() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}
