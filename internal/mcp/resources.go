package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	srv.AddResource(
		mcp.NewResource(
			"tabletalk://profiles",
			"Connection Profiles",
			mcp.WithResourceDescription(
				"The connection profiles configured for TableTalk, with name, "+
					"driver, and target database. Credentials are never included.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleProfilesResource,
	)

	srv.AddResource(
		mcp.NewResource(
			"tabletalk://schema",
			"Database Schema",
			mcp.WithResourceDescription(
				"The rendered schema description of the connected database: "+
					"tables, columns, keys, relationships, and sample rows.",
			),
			mcp.WithMIMEType("text/plain"),
		),
		s.handleSchemaResource,
	)
}

// handleProfilesResource returns a JSON list of the configured profiles.
func (s *MCPServer) handleProfilesResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	type profileInfo struct {
		Name     string `json:"name"`
		Driver   string `json:"driver"`
		Host     string `json:"host,omitempty"`
		Database string `json:"database,omitempty"`
		File     string `json:"file,omitempty"`
	}

	items := make([]profileInfo, len(s.profiles))
	for i, p := range s.profiles {
		items[i] = profileInfo{
			Name:     p.Name,
			Driver:   p.Driver,
			Host:     p.Host,
			Database: p.Database,
			File:     p.File,
		}
	}

	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profiles: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tabletalk://profiles",
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// handleSchemaResource returns the rendered description of the connected
// database, the same text the planner sees.
func (s *MCPServer) handleSchemaResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	conv, conn, err := s.connected()
	if err != nil {
		return nil, fmt.Errorf("no database connected: use the tabletalk_connect tool first")
	}

	desc, err := s.ensureSchema(ctx, conv, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "tabletalk://schema",
			MIMEType: "text/plain",
			Text:     desc.Text,
		},
	}, nil
}
