package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// NewManagementCommand creates the management command group.
func NewManagementCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "management",
		Aliases: []string{"mapi"},
		Short:   "Send requests to the management API",
		Long: `Send raw requests to the Storyblok management API. Paths are relative
to the API version, e.g. spaces/606/stories.

Successful writes are published to NATS when --nats-url is set.`,
	}

	cmd.AddCommand(newManagementGetCommand())
	cmd.AddCommand(newManagementWriteCommand(http.MethodPost))
	cmd.AddCommand(newManagementWriteCommand(http.MethodPut))
	cmd.AddCommand(newManagementDeleteCommand())

	return cmd
}

func newManagementGetCommand() *cobra.Command {
	var query []string

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "GET a management resource",
		Long:  "Fetch a management API resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := parseQueryFlags(query)
			if err != nil {
				return err
			}

			client, sess, err := newManagementClient()
			if err != nil {
				return err
			}
			defer sess.Close(cmd.ErrOrStderr())

			resp, err := client.Get(commandContext(cmd), args[0], options)
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", args[0], err)
			}

			return outputResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value, repeatable")

	return cmd
}

func newManagementWriteCommand(method string) *cobra.Command {
	var data string

	use := "post"
	short := "POST a JSON payload"

	if method == http.MethodPut {
		use = "put"
		short = "PUT a JSON payload"
	}

	cmd := &cobra.Command{
		Use:   use + " PATH",
		Short: short,
		Long: `Send a JSON object to a management API path. --data takes the JSON itself,
@file to read it from a file, or - to read it from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parsePayload(data, cmd.InOrStdin())
			if err != nil {
				return err
			}

			client, sess, err := newManagementClient()
			if err != nil {
				return err
			}
			defer sess.Close(cmd.ErrOrStderr())

			var resp *storyblok.Response
			if method == http.MethodPut {
				resp, err = client.Put(commandContext(cmd), args[0], payload)
			} else {
				resp, err = client.Post(commandContext(cmd), args[0], payload)
			}

			if err != nil {
				return fmt.Errorf("failed to %s %s: %w", use, args[0], err)
			}

			return outputResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON payload, @file or -")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newManagementDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH",
		Short: "DELETE a management resource",
		Long:  "Delete a management API resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := newManagementClient()
			if err != nil {
				return err
			}
			defer sess.Close(cmd.ErrOrStderr())

			resp, err := client.Delete(commandContext(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", args[0], err)
			}

			return outputResponse(cmd.OutOrStdout(), resp)
		},
	}
}
