package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tabletalk/tabletalk/internal/chat"
	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/connector/drivers"
	"github.com/tabletalk/tabletalk/internal/llm"
	"github.com/tabletalk/tabletalk/internal/model"
	"github.com/tabletalk/tabletalk/internal/schema"
	"github.com/tabletalk/tabletalk/internal/session"
)

func newAskCmd() *cobra.Command {
	var (
		profileName  string
		profilesFile string
		directive    string
		noSamples    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-shot question against a connection profile",
		Long: `Connect to the database named by a connection profile, ask a single
question, print the answer, and disconnect. Credentials come from the
profiles file; a missing password is prompted for interactively.`,
		Example: `  tabletalk ask --profile pagila "which category has the most films?"
  tabletalk ask --profile local --directive "answer in one sentence" "how many orders shipped late?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is empty")
			}
			return runAsk(cmd.Context(), profileName, profilesPath(profilesFile), directive, question, !noSamples)
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "Connection profile name (required)")
	cmd.Flags().StringVar(&profilesFile, "profiles", "", "Path to the profiles file (default ./profiles.yaml)")
	cmd.Flags().StringVar(&directive, "directive", "", "Standing instruction applied to the answer")
	cmd.Flags().BoolVar(&noSamples, "no-samples", false, "Skip sample rows during schema introspection")
	cmd.MarkFlagRequired("profile")

	return cmd
}

func runAsk(ctx context.Context, profileName, profilesFile, directive, question string, includeSamples bool) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	profile, err := config.FindProfile(profilesFile, profileName)
	if err != nil {
		return err
	}
	if profile.Password == "" && profile.User != "" {
		fmt.Fprintf(os.Stderr, "Password for %s@%s: ", profile.User, profile.Host)
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		profile.Password = string(pwBytes)
	}

	client, err := newLLMClient(cfg.LLM)
	if err != nil {
		return err
	}

	registry := drivers.NewRegistry()
	defer registry.CloseAll()

	conv := session.NewManager().Create()
	if err := registry.Connect(conv.ID, profile.ConnectionConfig()); err != nil {
		return err
	}
	conn, err := registry.Get(conv.ID)
	if err != nil {
		return err
	}

	desc, err := schema.Describe(ctx, conn, includeSamples)
	if err != nil {
		return fmt.Errorf("introspect schema: %w", err)
	}
	logger.Info("schema introspected", "tables", len(desc.Schema.Tables), "relationships", len(desc.Relationships))

	controller := chat.NewController(
		&cliPlannerAdapter{planner: llm.NewPlanner(client, logger), schemaText: desc.Text},
		&cliAnswerAdapter{answerer: llm.NewAnswerer(client, logger)},
		conn,
		llm.NewAgent(client, conn, desc.Text, logger),
		logger,
	)

	reply := controller.Respond(ctx, nil, directive, question)
	fmt.Println(reply)
	return nil
}

type cliPlannerAdapter struct {
	planner    *llm.Planner
	schemaText string
}

func (a *cliPlannerAdapter) Plan(ctx context.Context, req chat.PlanRequest) (model.QueryPlan, error) {
	return a.planner.Plan(ctx, llm.PlanInput{
		Question:     req.Question,
		SchemaText:   a.schemaText,
		ContextBlock: req.ContextBlock,
		Directive:    req.Directive,
	})
}

type cliAnswerAdapter struct {
	answerer *llm.Answerer
}

func (a *cliAnswerAdapter) Compose(ctx context.Context, req chat.AnswerRequest) (string, error) {
	return a.answerer.Compose(ctx, llm.AnswerInput{
		Question:  req.Question,
		Rows:      req.Rows,
		Directive: req.Directive,
	})
}
