package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/connector/drivers"
	tmcp "github.com/tabletalk/tabletalk/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport    string
		port         int
		profilesFile string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that lets AI agents connect
to a configured database profile and ask questions through the same
read-only pipeline as the HTTP API.

In stdio mode, the server communicates over stdin/stdout using JSON-RPC,
suitable for direct integration with desktop MCP clients. In HTTP mode it
listens on the specified port.`,
		Example: `  tabletalk mcp                             # stdio mode
  tabletalk mcp --transport http --port 3001   # streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port, profilesPath(profilesFile))
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")
	cmd.Flags().StringVar(&profilesFile, "profiles", "", "Path to the profiles file (default ./profiles.yaml)")

	return cmd
}

func runMCP(transport string, port int, profilesFile string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	profiles, err := config.LoadProfiles(profilesFile)
	if err != nil {
		return fmt.Errorf("the MCP server needs connection profiles: %w", err)
	}

	client, err := newLLMClient(cfg.LLM)
	if err != nil {
		return err
	}

	registry := drivers.NewRegistry()
	defer registry.CloseAll()

	mcpSrv := tmcp.NewMCPServer(registry, profiles, client, logger)
	defer mcpSrv.Close()

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
