package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewTagsCommand creates the tags command group.
func NewTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Read tags",
		Long:    "List the tags used by stories in the space",
	}

	cmd.AddCommand(newTagsListCommand())

	return cmd
}

func newTagsListCommand() *cobra.Command {
	var (
		flags      deliveryFlags
		startsWith string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Long:  "List tags with the number of stories using each",
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

			if startsWith != "" {
				options.WithStartsWith(startsWith)
			}

			resp, err := client.GetTags(commandContext(cmd), options)
			if err != nil {
				return fmt.Errorf("failed to list tags: %w", err)
			}

			return output(cmd.OutOrStdout(), resp.Body, func(table *tablewriter.Table) {
				table.Header("Name", "Stories")

				for _, tag := range records(resp, "tags") {
					_ = table.Append(field(tag, "name"), field(tag, "taggings_count"))
				}
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&startsWith, "starts-with", "", "only tags used by stories under this slug prefix")

	return cmd
}
