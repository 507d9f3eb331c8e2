package commands

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// NewLinksCommand creates the links command group.
func NewLinksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "links",
		Aliases: []string{"link"},
		Short:   "Read links",
		Long:    "List story links or show them nested as a tree",
	}

	cmd.AddCommand(newLinksListCommand())
	cmd.AddCommand(newLinksTreeCommand())

	return cmd
}

func fetchLinks(cmd *cobra.Command, flags *deliveryFlags, startsWith string) (*storyblok.Response, error) {
	client, sess, err := newDeliveryClient()
	if err != nil {
		return nil, err
	}
	defer sess.Close(cmd.ErrOrStderr())

	options, err := flags.apply(client)
	if err != nil {
		return nil, err
	}

	if startsWith != "" {
		options.WithStartsWith(startsWith)
	}

	resp, err := client.GetLinks(commandContext(cmd), options)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}

	return resp, nil
}

func newLinksListCommand() *cobra.Command {
	var (
		flags      deliveryFlags
		startsWith string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List links",
		Long:  "List every story and folder link with its parent",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := fetchLinks(cmd, &flags, startsWith)
			if err != nil {
				return err
			}

			links := resp.Links()

			return output(cmd.OutOrStdout(), links, func(table *tablewriter.Table) {
				table.Header("ID", "Parent ID", "Name", "Slug", "Folder")

				for _, link := range links {
					_ = table.Append(
						field(link, "id"),
						field(link, "parent_id"),
						field(link, "name"),
						field(link, "slug"),
						field(link, "is_folder"),
					)
				}
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&startsWith, "starts-with", "", "only links under this slug prefix")

	return cmd
}

func newLinksTreeCommand() *cobra.Command {
	var (
		flags      deliveryFlags
		startsWith string
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show links as a tree",
		Long:  "Nest links under their parents, starting from the top level",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := fetchLinks(cmd, &flags, startsWith)
			if err != nil {
				return err
			}

			tree := resp.Tree()

			return output(cmd.OutOrStdout(), tree, func(table *tablewriter.Table) {
				table.Header("Name", "Slug", "ID")

				tree.Walk(func(depth int, node *storyblok.TreeNode) {
					_ = table.Append(
						strings.Repeat("  ", depth)+field(node.Item, "name"),
						field(node.Item, "slug"),
						field(node.Item, "id"),
					)
				})
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&startsWith, "starts-with", "", "only links under this slug prefix")

	return cmd
}
