//go:build integration

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	PreviewKey    string
	ManagementKey string
	SpaceID       string
	Endpoint      string
	CLIPath       string
	Verbose       bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		PreviewKey:    os.Getenv("STORYBLOK_PREVIEW_KEY"),
		ManagementKey: os.Getenv("STORYBLOK_MANAGEMENT_KEY"),
		SpaceID:       os.Getenv("STORYBLOK_SPACE_ID"),
		Endpoint:      os.Getenv("STORYBLOK_ENDPOINT"),
		CLIPath:       getCLIPath(),
		Verbose:       os.Getenv("STORYBLOK_TEST_VERBOSE") == "true",
	}
}

// getCLIPath determines the path to the storyblok binary.
func getCLIPath() string {
	if path := os.Getenv("STORYBLOK_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../storyblok",
		"./storyblok",
		"../storyblok",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "storyblok"
}

// SkipIfMissingPreviewKey skips the test when no preview key is set.
func (config *TestConfig) SkipIfMissingPreviewKey(t *testing.T) {
	t.Helper()

	if config.PreviewKey == "" {
		t.Skip("STORYBLOK_PREVIEW_KEY not set, skipping integration test")
	}
}

// SkipIfMissingManagement skips the test when management credentials are
// missing.
func (config *TestConfig) SkipIfMissingManagement(t *testing.T) {
	t.Helper()

	if config.ManagementKey == "" || config.SpaceID == "" {
		t.Skip("STORYBLOK_MANAGEMENT_KEY or STORYBLOK_SPACE_ID not set, skipping integration test")
	}
}

// SkipIfMissingCLI skips the test when the storyblok binary is not built.
func (config *TestConfig) SkipIfMissingCLI(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.CLIPath); err != nil {
		t.Skipf("storyblok binary not found at %s, skipping integration test", config.CLIPath)
	}
}

// CommandRunner runs storyblok CLI commands against a throwaway config file.
type CommandRunner struct {
	config     *TestConfig
	t          *testing.T
	configFile string
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		t:          t,
		configFile: t.TempDir() + "/config.yml",
	}
}

// Run executes a storyblok command and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.CLIPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Env = append(os.Environ(), "STORYBLOK_PREVIEW_KEY="+runner.config.PreviewKey)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.CLIPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// GenerateTestName creates a unique test resource name.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
