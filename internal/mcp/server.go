// Package mcp exposes the chat pipeline over the Model Context Protocol so
// MCP clients can connect a database and ask questions in plain language.
package mcp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/llm"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/session"
)

// MCPServer bridges MCP tools to the question-answering pipeline. An MCP
// session carries exactly one conversation: the client connects to one of
// the configured profiles and every ask shares that connection and history.
type MCPServer struct {
	registry *connector.Registry
	sessions *session.Manager
	profiles []config.Profile
	client   llm.Client
	logger   *slog.Logger
	server   *server.MCPServer

	mu   sync.Mutex
	conv *session.Conversation
}

// NewMCPServer creates a server pre-loaded with the connect, ask, schema,
// and history tools. The returned server is ready to serve over stdio or
// HTTP.
func NewMCPServer(
	registry *connector.Registry,
	profiles []config.Profile,
	client llm.Client,
	logger *slog.Logger,
) *MCPServer {
	s := &MCPServer{
		registry: registry,
		sessions: session.NewManager(),
		profiles: profiles,
		client:   client,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"TableTalk",
		"1.0.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go server instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio runs the server over stdin/stdout, the launch mode used by
// desktop MCP clients that start the binary as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP runs the server in Streamable HTTP mode on the given address.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

// Close disconnects the active conversation's database, if any.
func (s *MCPServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv != nil {
		if err := s.registry.Disconnect(s.conv.ID); err != nil {
			s.logger.Warn("disconnect on shutdown failed", "error", err)
		}
		s.conv = nil
	}
}

// conversation returns the active conversation, creating it on first use.
func (s *MCPServer) conversation() *session.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		s.conv = s.sessions.Create()
	}
	return s.conv
}

// connected returns the active conversation and its connector, or an error
// when nothing is connected yet.
func (s *MCPServer) connected() (*session.Conversation, connector.Connector, error) {
	conv := s.conversation()
	conn, err := s.registry.Get(conv.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, conn, nil
}

// ensureSchema introspects the connected database on first use and caches
// the rendered description on the conversation.
func (s *MCPServer) ensureSchema(ctx context.Context, conv *session.Conversation, conn connector.Connector) (*schema.Description, error) {
	if desc := conv.Schema(); desc != nil {
		return desc, nil
	}
	desc, err := schema.Describe(ctx, conn, true)
	if err != nil {
		return nil, err
	}
	conv.SetSchema(desc)
	s.logger.Info("schema introspected",
		"conversation_id", conv.ID,
		"tables", len(desc.Schema.Tables),
		"relationships", len(desc.Relationships),
	)
	return desc, nil
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
