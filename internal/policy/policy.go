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

// Package policy implements the COM class allowlist.
//
// An empty allowlist permits every identifier.  This is the documented
// default of the original design and it is insecure: any registered COM
// class on the machine becomes reachable by the connected agent.  Operators
// running combridge outside of a throwaway environment should configure an
// allowlist; the serve command warns loudly when none is set.
package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Policy answers whether a CLSID or ProgID may be instantiated.  It is
// immutable after construction and safe for concurrent use.
type Policy struct {
	allowed map[string]struct{}
}

// New builds a Policy from allowlist entries.  Entries are normalised;
// blank entries are dropped.
func New(entries []string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		if n := Normalize(e); n != "" {
			p.allowed[n] = struct{}{}
		}
	}
	return p
}

// Permitted reports whether identifier may be instantiated.  An empty
// policy permits everything.
func (p *Policy) Permitted(identifier string) bool {
	if len(p.allowed) == 0 {
		return true
	}
	_, ok := p.allowed[Normalize(identifier)]
	return ok
}

// Empty reports whether the policy has no entries (allow-all mode).
func (p *Policy) Empty() bool { return len(p.allowed) == 0 }

// Len returns the number of allowlist entries.
func (p *Policy) Len() int { return len(p.allowed) }

// Normalize canonicalises an identifier for comparison: surrounding space
// is trimmed, GUID-shaped values become upper-case brace-delimited CLSIDs,
// and ProgIDs are case-folded.
func Normalize(identifier string) string {
	s := strings.TrimSpace(identifier)
	if s == "" {
		return ""
	}
	if g, ok := guidOf(s); ok {
		return "{" + strings.ToUpper(g) + "}"
	}
	return strings.ToLower(s)
}

// guidOf reports whether s is GUID-shaped (braces optional) and returns the
// bare 8-4-4-4-12 form.
func guidOf(s string) (string, bool) {
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	if len(s) != 36 {
		return "", false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return "", false
			}
		default:
			if !isHex(c) {
				return "", false
			}
		}
	}
	return s, true
}

func isHex(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// file is the TOML allowlist document shape:
//
//	allow = ["Excel.Application", "{0002DF01-0000-0000-C000-000000000046}"]
type file struct {
	Allow []string `toml:"allow"`
}

// LoadFile reads allowlist entries from a TOML file.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("allowlist: %w", err)
	}
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("allowlist: parse %s: %w", path, err)
	}
	return f.Allow, nil
}
