package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tabletalk/tabletalk/internal/chat"
	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/llm"
	"github.com/tabletalk/tabletalk/internal/model"
)

// registerTools registers all TableTalk MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("tabletalk_list_profiles",
			mcp.WithDescription(
				"List the connection profiles configured for TableTalk. Returns each "+
					"profile's name, driver, and target database, never credentials. "+
					"Use this first to discover which databases can be connected.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListProfiles,
	)

	srv.AddTool(
		mcp.NewTool("tabletalk_connect",
			mcp.WithDescription(
				"Connect this session to a database using a named connection profile. "+
					"Connecting again replaces the previous connection and refreshes the "+
					"cached schema. Credentials come from the profile, never from the chat.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("profile",
				mcp.Required(),
				mcp.Description("Name of the connection profile to use"),
			),
		),
		s.handleConnect,
	)

	srv.AddTool(
		mcp.NewTool("tabletalk_ask",
			mcp.WithDescription(
				"Ask a plain-language question about the connected database. The "+
					"question runs through the full pipeline: input sanitization, query "+
					"planning, read-only validation, execution, and answer composition. "+
					"Conversation history carries across calls, so follow-up questions "+
					"like 'how many of those?' work.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("question",
				mcp.Required(),
				mcp.Description("The question to ask about the data"),
			),
		),
		s.handleAsk,
	)

	srv.AddTool(
		mcp.NewTool("tabletalk_get_schema",
			mcp.WithDescription(
				"Get the structure of the connected database: tables, columns with "+
					"types and nullability, primary keys, and foreign-key relationships.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleGetSchema,
	)

	srv.AddTool(
		mcp.NewTool("tabletalk_clear_history",
			mcp.WithDescription(
				"Forget the conversation so far. The database connection and schema "+
					"cache are kept; only the recorded turns are dropped.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleClearHistory,
	)
}

// handleListProfiles returns the configured profiles without credentials.
func (s *MCPServer) handleListProfiles(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

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

	return successJSON(items)
}

// handleConnect attaches the session to the database named by a profile.
func (s *MCPServer) handleConnect(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	name, err := requireString(request, "profile")
	if err != nil {
		return toolError("%v. Available profiles: %v", err, s.profileNames())
	}

	var profile *config.Profile
	for i := range s.profiles {
		if s.profiles[i].Name == name {
			profile = &s.profiles[i]
			break
		}
	}
	if profile == nil {
		return toolError("Profile %q not found. Available profiles: %v", name, s.profileNames())
	}

	conv := s.conversation()
	if err := s.registry.Connect(conv.ID, profile.ConnectionConfig()); err != nil {
		return toolError("Connection failed: %v", err)
	}

	database := profile.Database
	if database == "" {
		database = profile.File
	}
	conv.SetConnection(profile.Driver, database)

	s.logger.Info("mcp session connected",
		"conversation_id", conv.ID,
		"profile", profile.Name,
		"driver", profile.Driver,
	)

	return successJSON(map[string]any{
		"connected": true,
		"profile":   profile.Name,
		"driver":    profile.Driver,
		"database":  database,
	})
}

// handleAsk runs one question through the pipeline and returns the answer.
func (s *MCPServer) handleAsk(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	question, err := requireString(request, "question")
	if err != nil {
		return toolError("%v", err)
	}

	conv, conn, err := s.connected()
	if err != nil {
		return toolError("No database connected. Call tabletalk_connect first. "+
			"Available profiles: %v", s.profileNames())
	}

	desc, err := s.ensureSchema(ctx, conv, conn)
	if err != nil {
		return toolError("Could not read the database schema: %v", err)
	}

	controller := chat.NewController(
		&plannerAdapter{planner: llm.NewPlanner(s.client, s.logger), schemaText: desc.Text},
		&answerAdapter{answerer: llm.NewAnswerer(s.client, s.logger)},
		conn,
		llm.NewAgent(s.client, conn, desc.Text, s.logger),
		s.logger,
	)

	history := conv.History()
	reply := controller.Respond(ctx, history, conv.Directive(), question)

	conv.AppendTurn(model.RoleUser, question)
	conv.AppendTurn(model.RoleAssistant, reply)

	return mcp.NewToolResultText(reply), nil
}

// handleGetSchema returns the introspected structure of the connected
// database.
func (s *MCPServer) handleGetSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	conv, conn, err := s.connected()
	if err != nil {
		return toolError("No database connected. Call tabletalk_connect first. "+
			"Available profiles: %v", s.profileNames())
	}

	desc, err := s.ensureSchema(ctx, conv, conn)
	if err != nil {
		return toolError("Could not read the database schema: %v", err)
	}

	return successJSON(map[string]any{
		"tables":        desc.Schema.Tables,
		"relationships": desc.Relationships,
	})
}

// handleClearHistory drops the conversation's recorded turns.
func (s *MCPServer) handleClearHistory(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	conv := s.conversation()
	conv.ClearHistory()
	return successJSON(map[string]any{"cleared": true})
}

func (s *MCPServer) profileNames() []string {
	names := make([]string, len(s.profiles))
	for i, p := range s.profiles {
		names[i] = p.Name
	}
	return names
}

// plannerAdapter binds the session's schema description into the planner
// call.
type plannerAdapter struct {
	planner    *llm.Planner
	schemaText string
}

func (a *plannerAdapter) Plan(ctx context.Context, req chat.PlanRequest) (model.QueryPlan, error) {
	return a.planner.Plan(ctx, llm.PlanInput{
		Question:     req.Question,
		SchemaText:   a.schemaText,
		ContextBlock: req.ContextBlock,
		Directive:    req.Directive,
	})
}

type answerAdapter struct {
	answerer *llm.Answerer
}

func (a *answerAdapter) Compose(ctx context.Context, req chat.AnswerRequest) (string, error) {
	return a.answerer.Compose(ctx, llm.AnswerInput{
		Question:  req.Question,
		Rows:      req.Rows,
		Directive: req.Directive,
	})
}
