package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// Config represents the CLI configuration file.
type Config struct {
	PreviewKey       string `json:"preview_key,omitempty"       yaml:"preview_key,omitempty"`
	ManagementKey    string `json:"management_key,omitempty"    yaml:"management_key,omitempty"`
	Endpoint         string `json:"endpoint,omitempty"          yaml:"endpoint,omitempty"`
	APIVersion       string `json:"api_version,omitempty"       yaml:"api_version,omitempty"`
	SSL              bool   `json:"ssl"                         yaml:"ssl"`
	Timeout          string `json:"timeout,omitempty"           yaml:"timeout,omitempty"`
	MaxRetries       int    `json:"max_retries"                 yaml:"max_retries"`
	Version          string `json:"version,omitempty"           yaml:"version,omitempty"`
	ResolveRelations string `json:"resolve_relations,omitempty" yaml:"resolve_relations,omitempty"`
	Output           string `json:"output,omitempty"            yaml:"output,omitempty"`
	NATSURL          string `json:"nats_url,omitempty"          yaml:"nats_url,omitempty"`
	NATSSubject      string `json:"nats_subject,omitempty"      yaml:"nats_subject,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the keys, endpoint and defaults stored in the Storyblok CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with keys masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.PreviewKey = maskKey(config.PreviewKey)
			config.ManagementKey = maskKey(config.ManagementKey)

			return output(cmd.OutOrStdout(), config, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				addConfigRows(table, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value. Keys:
  preview_key, management_key, endpoint, api_version, ssl, timeout,
  max_retries, version, resolve_relations, output, nats_url, nats_subject`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config := loadConfig()

			err := setConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			viper.Set(key, value)

			shown := value
			if key == sbclient.KeyPreviewKey || key == sbclient.KeyManagementKey {
				shown = maskKey(value)
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, shown)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value so the default or environment value applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			config := loadConfig()

			err := unsetConfigValue(config, key)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

func loadConfig() *Config {
	return &Config{
		PreviewKey:       viper.GetString(sbclient.KeyPreviewKey),
		ManagementKey:    viper.GetString(sbclient.KeyManagementKey),
		Endpoint:         viper.GetString(sbclient.KeyEndpoint),
		APIVersion:       viper.GetString(sbclient.KeyAPIVersion),
		SSL:              viper.GetBool(sbclient.KeySSL),
		Timeout:          viper.GetString(sbclient.KeyTimeout),
		MaxRetries:       viper.GetInt(sbclient.KeyMaxRetries),
		Version:          viper.GetString(sbclient.KeyVersion),
		ResolveRelations: viper.GetString(sbclient.KeyResolveRelations),
		Output:           viper.GetString(KeyOutput),
		NATSURL:          viper.GetString(KeyNATSURL),
		NATSSubject:      viper.GetString(KeyNATSSubject),
	}
}

// setConfigValue validates value for key and stores it in config.
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case sbclient.KeyPreviewKey:
		config.PreviewKey = value
	case sbclient.KeyManagementKey:
		config.ManagementKey = value
	case sbclient.KeyEndpoint:
		config.Endpoint = value
	case sbclient.KeyAPIVersion:
		config.APIVersion = value
	case sbclient.KeySSL:
		ssl, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}

		config.SSL = ssl
	case sbclient.KeyTimeout:
		_, err := sbclient.ParseTimeout(value)
		if err != nil {
			return err
		}

		config.Timeout = value
	case sbclient.KeyMaxRetries:
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}

		if retries < 0 {
			return storyblok.ErrInvalidMaxRetries
		}

		config.MaxRetries = retries
	case sbclient.KeyVersion:
		version, err := storyblok.ParseContentVersion(value)
		if err != nil {
			return err
		}

		config.Version = string(version)
	case sbclient.KeyResolveRelations:
		config.ResolveRelations = value
	case KeyOutput:
		switch value {
		case constants.FormatJSON, constants.FormatYAML, constants.FormatTable:
			config.Output = value
		default:
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}
	case KeyNATSURL:
		config.NATSURL = value
	case KeyNATSSubject:
		config.NATSSubject = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	switch key {
	case sbclient.KeyPreviewKey:
		config.PreviewKey = ""
	case sbclient.KeyManagementKey:
		config.ManagementKey = ""
	case sbclient.KeyEndpoint:
		config.Endpoint = ""
	case sbclient.KeyAPIVersion:
		config.APIVersion = ""
	case sbclient.KeySSL:
		config.SSL = false
	case sbclient.KeyTimeout:
		config.Timeout = ""
	case sbclient.KeyMaxRetries:
		config.MaxRetries = constants.DefaultRetryMax
	case sbclient.KeyVersion:
		config.Version = ""
	case sbclient.KeyResolveRelations:
		config.ResolveRelations = ""
	case KeyOutput:
		config.Output = ""
	case KeyNATSURL:
		config.NATSURL = ""
	case KeyNATSSubject:
		config.NATSSubject = ""
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	viper.Set(key, nil)

	return nil
}

func addConfigRows(table *tablewriter.Table, config *Config) {
	valueOrNA := func(s string) string {
		if s == "" {
			return constants.NotAvailable
		}

		return s
	}

	_ = table.Append("Preview Key", valueOrNA(config.PreviewKey))
	_ = table.Append("Management Key", valueOrNA(config.ManagementKey))
	_ = table.Append("Endpoint", valueOrNA(config.Endpoint))
	_ = table.Append("API Version", valueOrNA(config.APIVersion))
	_ = table.Append("SSL", strconv.FormatBool(config.SSL))
	_ = table.Append("Timeout", valueOrNA(config.Timeout))
	_ = table.Append("Max Retries", strconv.Itoa(config.MaxRetries))
	_ = table.Append("Version", valueOrNA(config.Version))
	_ = table.Append("Resolve Relations", valueOrNA(config.ResolveRelations))
	_ = table.Append("Output", valueOrNA(config.Output))
	_ = table.Append("NATS URL", valueOrNA(config.NATSURL))
	_ = table.Append("NATS Subject", valueOrNA(config.NATSSubject))
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return output(w, result, func(table *tablewriter.Table) {
		table.Header("Action", "Key", "Value")
		_ = table.Append(action, key, value)
	})
}

// configFilePath returns the file config is read from, or
// ~/.storyblok/config.yml, creating its directory.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(home, ConfigDirName)

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
