package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewDatasourceEntriesCommand creates the datasource-entries command group.
func NewDatasourceEntriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasource-entries",
		Aliases: []string{"datasource", "ds"},
		Short:   "Read datasource entries",
		Long:    "List the name/value entries of a datasource",
	}

	cmd.AddCommand(newDatasourceEntriesListCommand())

	return cmd
}

func newDatasourceEntriesListCommand() *cobra.Command {
	var (
		flags     deliveryFlags
		dimension string
	)

	cmd := &cobra.Command{
		Use:   "list DATASOURCE_SLUG",
		Short: "List datasource entries",
		Long:  "List the entries of the datasource with the given slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := newDeliveryClient()
			if err != nil {
				return err
			}
			defer sess.Close(cmd.ErrOrStderr())

			options, err := flags.apply(client)
			if err != nil {
				return err
			}

			if dimension != "" {
				options.Set("dimension", dimension)
			}

			resp, err := client.GetDatasourceEntries(commandContext(cmd), args[0], options)
			if err != nil {
				return fmt.Errorf("failed to list datasource entries: %w", err)
			}

			return output(cmd.OutOrStdout(), resp.Body, func(table *tablewriter.Table) {
				table.Header("ID", "Name", "Value", "Dimension Value")

				for _, entry := range records(resp, "datasource_entries") {
					_ = table.Append(
						field(entry, "id"),
						field(entry, "name"),
						field(entry, "value"),
						field(entry, "dimension_value"),
					)
				}
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&dimension, "dimension", "", "dimension to read values for")

	return cmd
}
