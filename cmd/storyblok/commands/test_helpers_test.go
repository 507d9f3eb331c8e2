package commands

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
)

const (
	testPreviewKey    = "preview-key"
	testManagementKey = "management-key"
)

// setupViper resets the global viper state, points it at server and a
// temporary config file, and selects format for output.
func setupViper(t *testing.T, server *httptest.Server, format string) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	sbclient.SetDefaults(viper.GetViper())

	configFile := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(configFile)

	if server != nil {
		viper.Set(sbclient.KeyEndpoint, server.URL)
	}

	viper.Set(sbclient.KeyPreviewKey, testPreviewKey)
	viper.Set(sbclient.KeyManagementKey, testManagementKey)

	if format == "" {
		format = constants.FormatTable
	}

	viper.Set(KeyOutput, format)

	return configFile
}

// execute runs cmd with args and returns what it wrote to stdout and stderr.
// Usage and error printing are silenced as on the root command, so stdout
// holds only the command's output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}
