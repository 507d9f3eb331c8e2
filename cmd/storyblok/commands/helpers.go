package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/storyblok-client/internal/auth"
	"github.com/fivetwenty-io/storyblok-client/internal/client"
	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/internal/events"
	"github.com/fivetwenty-io/storyblok-client/pkg/sbclient"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// CLI-only configuration keys.
const (
	KeyOutput      = "output"
	KeyVerbose     = "verbose"
	KeyStats       = "stats"
	KeyNATSURL     = "nats_url"
	KeyNATSSubject = "nats_subject"

	// ConfigDirName is the directory under $HOME holding config.yml.
	ConfigDirName = ".storyblok"
)

// session bundles what a command needs beyond the client itself.
type session struct {
	stats   *storyblok.MetricsCollector
	closers []func()
}

// Close releases event publishers and prints statistics when requested.
func (s *session) Close(w io.Writer) {
	for _, closeFn := range s.closers {
		closeFn()
	}

	if s.stats != nil {
		_ = printStats(w, s.stats)
	}
}

// buildConfig reads the client configuration for kind from viper and adds
// the CLI's logger and statistics interceptors.
func buildConfig(kind storyblok.ConsumerKind, sess *session) (*storyblok.Config, error) {
	config, err := sbclient.ConfigFromViper(viper.GetViper(), kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if viper.GetBool(KeyVerbose) {
		config.Debug = true
		config.Logger = storyblok.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if viper.GetBool(KeyStats) {
		sess.stats = storyblok.NewMetricsCollector()
		chain := storyblok.NewInterceptorChain()
		chain.AddRequestInterceptor(storyblok.MetricsRequestInterceptor(sess.stats))
		chain.AddResponseInterceptor(storyblok.MetricsResponseInterceptor(sess.stats))
		config.Interceptors = chain
	}

	return config, nil
}

// keyManagerFor returns a key manager that saves changed keys to the config
// file. When no key is configured and stdin is a terminal, the user is asked
// for one and it is saved.
func keyManagerFor(config *storyblok.Config, missing error) (auth.KeyManager, error) {
	keys := auth.NewConfigKeyManager(config.APIKey, config.Kind, NewConfigPersister())
	if config.APIKey != "" {
		return keys, nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, missing
	}

	key, err := promptSecret(os.Stderr, fmt.Sprintf("%s key: ", config.Kind))
	if err != nil {
		return nil, err
	}

	if key == "" {
		return nil, missing
	}

	config.APIKey = key
	keys.SetKey(key)

	return keys, nil
}

func promptSecret(w io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(w, prompt)

	secret, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}

	_, _ = fmt.Fprintln(w)

	return strings.TrimSpace(string(secret)), nil
}

// newDeliveryClient creates a delivery client from the CLI configuration.
func newDeliveryClient() (storyblok.DeliveryClient, *session, error) {
	sess := &session{}

	config, err := buildConfig(storyblok.ContentDelivery, sess)
	if err != nil {
		return nil, nil, err
	}

	keys, err := keyManagerFor(config, constants.ErrNoKeyConfigured)
	if err != nil {
		return nil, nil, err
	}

	c, err := client.NewWithKeyManager(config, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create delivery client: %w", err)
	}

	return c, sess, nil
}

// newManagementClient creates a management client from the CLI
// configuration, publishing write events to NATS when a server is set.
func newManagementClient() (storyblok.ManagementClient, *session, error) {
	sess := &session{}

	config, err := buildConfig(storyblok.ContentManagement, sess)
	if err != nil {
		return nil, nil, err
	}

	keys, err := keyManagerFor(config, constants.ErrNoMgmtKeyConfigured)
	if err != nil {
		return nil, nil, err
	}

	if natsURL := viper.GetString(KeyNATSURL); natsURL != "" {
		publisher, err := events.NewNATSPublisher(&events.NATSConfig{
			URL:     natsURL,
			Subject: viper.GetString(KeyNATSSubject),
			Name:    "storyblok-cli",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect event publisher: %w", err)
		}

		config.Events = publisher
		sess.closers = append(sess.closers, func() { _ = publisher.Close() })
	}

	c, err := client.NewManagementWithKeyManager(config, keys)
	if err != nil {
		sess.Close(io.Discard)

		return nil, nil, fmt.Errorf("failed to create management client: %w", err)
	}

	return c, sess, nil
}

// parseQueryFlags turns repeated --query key=value flags into options, in
// the order given. Repeating a key adds another value.
func parseQueryFlags(pairs []string) (*storyblok.Options, error) {
	options := storyblok.NewOptions()

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidQueryParam, pair)
		}

		if options.Has(key) {
			options.SetList(key, append(options.Values(key), value)...)
		} else {
			options.Set(key, value)
		}
	}

	return options, nil
}

// parsePayload reads a JSON object from data. "@path" reads the file at path
// and "-" reads stdin.
func parsePayload(data string, stdin io.Reader) (map[string]any, error) {
	var raw []byte

	switch {
	case data == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}

		raw = b
	case strings.HasPrefix(data, "@"):
		// #nosec G304 -- the path is supplied by the user running the CLI
		b, err := os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}

		raw = b
	default:
		raw = []byte(data)
	}

	var payload map[string]any

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	err := decoder.Decode(&payload)
	if err != nil || payload == nil {
		return nil, constants.ErrInvalidPayload
	}

	return payload, nil
}

// output writes data as JSON or YAML per --output, or calls table for the
// default table format.
func output(w io.Writer, data any, table func(*tablewriter.Table)) error {
	switch viper.GetString(KeyOutput) {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()

		return encoder.Encode(data)
	default:
		t := tablewriter.NewWriter(w)
		table(t)

		if err := t.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// outputResponse renders a whole response body. Tables show the top level
// fields of an object body and the raw text of anything else.
func outputResponse(w io.Writer, resp *storyblok.Response) error {
	return output(w, resp.Body, func(table *tablewriter.Table) {
		table.Header("Field", "Value")

		value, _ := resp.Body.Structured()

		fields, ok := value.(map[string]any)
		if !ok {
			_ = table.Append("body", resp.Body.Raw())

			return
		}

		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}

		slices.Sort(keys)

		for _, key := range keys {
			_ = table.Append(key, summarize(fields[key]))
		}
	})
}

// records returns the list under field of the body, e.g. "stories".
func records(resp *storyblok.Response, field string) []map[string]any {
	value, ok := resp.Body.Get(field)
	if !ok {
		return nil
	}

	list, ok := value.([]any)
	if !ok {
		return nil
	}

	out := make([]map[string]any, 0, len(list))

	for _, item := range list {
		if record, ok := item.(map[string]any); ok {
			out = append(out, record)
		}
	}

	return out
}

// field formats one record field for a table cell.
func field(record map[string]any, key string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return constants.NotAvailable
	}

	return summarize(value)
}

func summarize(value any) string {
	switch v := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, summarize(item))
		}

		return strings.Join(parts, ", ")
	case map[string]any:
		return fmt.Sprintf("{%d fields}", len(v))
	default:
		return fmt.Sprint(v)
	}
}

// maskKey shows the first few characters of a key.
func maskKey(key string) string {
	if key == "" {
		return ""
	}

	if len(key) <= constants.KeyPreviewLength {
		return constants.MaskedSecret
	}

	return key[:constants.KeyPreviewLength] + constants.MaskedSecret
}

func printStats(w io.Writer, collector *storyblok.MetricsCollector) error {
	snapshot := collector.Snapshot()

	endpoints := make([]string, 0, len(snapshot))
	for endpoint := range snapshot {
		endpoints = append(endpoints, endpoint)
	}

	slices.Sort(endpoints)

	table := tablewriter.NewWriter(w)
	table.Header("Endpoint", "Requests", "Errors", "Avg Latency")

	for _, endpoint := range endpoints {
		m := snapshot[endpoint]
		_ = table.Append(
			endpoint,
			strconv.FormatInt(m.TotalRequests, 10),
			strconv.FormatInt(m.TotalErrors, 10),
			m.AverageLatency.Round(time.Millisecond).String(),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// commandContext returns the command's context, or a background context when
// it runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
