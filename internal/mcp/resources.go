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

// In this file: demo resources.  Each resource is a short natural-language
// prompt showing an end-to-end automation the agent can run with the tools.

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// demo is one demo resource.
type demo struct {
	uri, name, description, text string
}

var demos = []demo{
	{
		uri:         "mcp-com://demos/sapi-greeting",
		name:        "SAPI greeting demo",
		description: "A demo that makes the computer speak a greeting via the SAPI COM object.",
		text:        "Use the SAPI.SpVoice COM object and say 'Greetings from combridge!'",
	},
	{
		uri:         "mcp-com://demos/open-browser",
		name:        "Browser demo",
		description: "A demo that opens the default browser on a URL via WScript.Shell.",
		text:        "Use the WScript.Shell COM object to open https://example.com in the default browser.",
	},
	{
		uri:         "mcp-com://demos/open-excel",
		name:        "Excel demo",
		description: "A demo that opens Excel and writes into a new worksheet.",
		text:        "Open Excel and write 'Hello, world' into cell A1 of a new worksheet, then make the application visible.",
	},
}

// addResources registers the demo resources on the MCP server.
func (s *Server) addResources() {
	for _, d := range demos {
		res := mcplib.NewResource(d.uri, d.name,
			mcplib.WithResourceDescription(d.description),
			mcplib.WithMIMEType("text/plain"),
		)
		text := d.text
		s.mcp.AddResource(res, func(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
			return []mcplib.ResourceContents{
				mcplib.TextResourceContents{
					URI:      req.Params.URI,
					MIMEType: "text/plain",
					Text:     text,
				},
			}, nil
		})
	}
}
