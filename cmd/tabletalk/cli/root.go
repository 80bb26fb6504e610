package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tabletalk/tabletalk/internal/config"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabletalk",
		Short: "Chat with your database in plain language",
		Long: `TableTalk: Chat with your database in plain language.

TableTalk connects to your SQL database, reads its schema, and answers
questions like "which customers spent the most last month?" by planning a
read-only query, running it, and turning the rows back into a sentence.
Every generated query is validated before execution; nothing is ever
written to the database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tabletalk.yaml)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tabletalk")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.tabletalk")
	}

	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix("TABLETALK")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
