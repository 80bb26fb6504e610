package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/connector/drivers"
	"github.com/tabletalk/tabletalk/internal/server"
	"github.com/tabletalk/tabletalk/internal/service"
	"github.com/tabletalk/tabletalk/internal/session"
)

const banner = `
 _____     _     _     _____     _ _
|_   _|_ _| |__ | |___|_   _|_ _| | |_
  | |/ _' | '_ \| / -_) | |/ _' | | / /
  |_|\__,_|_.__/|_\___| |_|\__,_|_|_\_\
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TableTalk HTTP server",
		Long:  "Start the HTTP server that exposes the chat API: connect a database, then ask questions over /api/v1/chat.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "tabletalk-dev-secret-change-me"
		logger.Warn("auth.jwt_secret not set, using development default")
	}

	client, err := newLLMClient(cfg.LLM)
	if err != nil {
		return err
	}

	registry := drivers.NewRegistry()
	logger.Info("connector registry initialized", "drivers", registry.Drivers())

	sessions := session.NewManager()
	authSvc := service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	srv := server.New(cfg.Server, sessions, registry, authSvc, client, logger)

	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
