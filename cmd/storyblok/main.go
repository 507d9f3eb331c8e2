package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/storyblok-client/cmd/storyblok/commands"
	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "storyblok",
	Short: "Storyblok API CLI",
	Long: `A command-line interface for the Storyblok content delivery and
management APIs.

Read stories, tags, datasource entries and links with a preview key, or send
raw requests to the management API with a management key.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.storyblok/config.yml)")
	rootCmd.PersistentFlags().StringP("endpoint", "e", "", "API host, e.g. api.storyblok.com or https://api.storyblok.com")
	rootCmd.PersistentFlags().String("output", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log requests to stderr")
	rootCmd.PersistentFlags().Bool("stats", false, "print per-endpoint request statistics to stderr")
	rootCmd.PersistentFlags().String("nats-url", "", "publish management write events to this NATS server")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag(sbclient.KeyEndpoint, rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag(commands.KeyOutput, rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag(commands.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag(commands.KeyStats, rootCmd.PersistentFlags().Lookup("stats"))
	_ = viper.BindPFlag(commands.KeyNATSURL, rootCmd.PersistentFlags().Lookup("nats-url"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewStoriesCommand())
	rootCmd.AddCommand(commands.NewTagsCommand())
	rootCmd.AddCommand(commands.NewDatasourceEntriesCommand())
	rootCmd.AddCommand(commands.NewLinksCommand())
	rootCmd.AddCommand(commands.NewManagementCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, commands.ConfigDirName)

		// Search config in ~/.storyblok/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// STORYBLOK_PREVIEW_KEY, STORYBLOK_ENDPOINT, ...
	viper.SetEnvPrefix(sbclient.EnvPrefix)
	viper.AutomaticEnv()
	sbclient.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool(commands.KeyVerbose) {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
