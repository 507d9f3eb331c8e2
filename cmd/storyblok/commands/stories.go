package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/storyblok-client/internal/constants"
	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// deliveryFlags are the read options shared by delivery commands.
type deliveryFlags struct {
	contentVersion   string
	resolveRelations string
	editMode         bool
	query            []string
}

func (f *deliveryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.contentVersion, "content-version", "", "content version to request (draft, published)")
	cmd.Flags().BoolVar(&f.editMode, "edit-mode", false, "request drafts as the visual editor does")
	cmd.Flags().StringArrayVarP(&f.query, "query", "q", nil, "extra query parameter as key=value, repeatable")
}

func (f *deliveryFlags) registerRelations(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.resolveRelations, "resolve-relations", "", "relations to resolve, e.g. article.author")
}

// apply configures c from the flags and returns the parsed --query options.
func (f *deliveryFlags) apply(c storyblok.DeliveryClient) (*storyblok.Options, error) {
	if f.contentVersion != "" {
		version, err := storyblok.ParseContentVersion(f.contentVersion)
		if err != nil {
			return nil, err
		}

		c.SetVersion(version)
	}

	if f.resolveRelations != "" {
		c.SetResolveRelations(f.resolveRelations)
	}

	if f.editMode {
		c.SetEditMode(true)
	}

	return parseQueryFlags(f.query)
}

// NewStoriesCommand creates the stories command group.
func NewStoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stories",
		Aliases: []string{"story"},
		Short:   "Read stories",
		Long:    "Fetch single stories by slug or uuid, or list stories from the content delivery API",
	}

	cmd.AddCommand(newStoriesGetCommand())
	cmd.AddCommand(newStoriesListCommand())

	return cmd
}

func newStoriesGetCommand() *cobra.Command {
	var (
		flags       deliveryFlags
		byUUID      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "get SLUG_OR_UUID...",
		Short: "Get stories",
		Long: `Fetch stories by full slug, or by uuid with --uuid. Several stories are
fetched concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := newDeliveryClient()
			if err != nil {
				return err
			}
			defer sess.Close(cmd.ErrOrStderr())

			if _, err := flags.apply(client); err != nil {
				return err
			}

			ctx := commandContext(cmd)

			if len(args) > 1 {
				return getStoriesBatch(cmd, client, args, byUUID, concurrency)
			}

			var resp *storyblok.Response
			if byUUID {
				resp, err = client.GetStoryByUUID(ctx, args[0])
			} else {
				resp, err = client.GetStoryBySlug(ctx, args[0])
			}

			if err != nil {
				return fmt.Errorf("failed to get story: %w", err)
			}

			return outputStory(cmd, resp)
		},
	}

	flags.register(cmd)
	flags.registerRelations(cmd)
	cmd.Flags().BoolVar(&byUUID, "uuid", false, "treat the arguments as story uuids")
	cmd.Flags().IntVar(&concurrency, "concurrency", constants.DefaultBatchConcurrency, "stories fetched at once")

	return cmd
}

// storyResult is one row of a multi-story lookup.
type storyResult struct {
	ID    string         `json:"id"              yaml:"id"`
	Story map[string]any `json:"story,omitempty" yaml:"story,omitempty"`
	Error string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func getStoriesBatch(cmd *cobra.Command, client storyblok.DeliveryClient, ids []string, byUUID bool, concurrency int) error {
	builder := storyblok.NewBatchBuilder()

	for _, id := range ids {
		if byUUID {
			builder.AddGetStoryByUUID(id, id)
		} else {
			builder.AddGetStory(id, id)
		}
	}

	results := storyblok.NewBatchExecutor(client, nil, concurrency).Execute(commandContext(cmd), builder.Build())

	rows := make([]storyResult, 0, len(results))
	failed := 0

	for _, result := range results {
		row := storyResult{ID: result.ID}

		if result.Success {
			if story, ok := result.Response.Body.Get("story"); ok {
				row.Story, _ = story.(map[string]any)
			}
		} else {
			row.Error = result.Error.Error()
			failed++
		}

		rows = append(rows, row)
	}

	err := output(cmd.OutOrStdout(), rows, func(table *tablewriter.Table) {
		table.Header("Requested", "ID", "Name", "Full Slug", "Error")

		for _, row := range rows {
			_ = table.Append(row.ID, field(row.Story, "id"), field(row.Story, "name"), field(row.Story, "full_slug"), row.Error)
		}
	})
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", constants.ErrStoriesFailed, failed, len(rows))
	}

	return nil
}

func newStoriesListCommand() *cobra.Command {
	var (
		flags      deliveryFlags
		startsWith string
		tags       []string
		sortBy     string
		perPage    int
		page       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories",
		Long:  "List stories, optionally filtered by slug prefix and tags",
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

			if len(tags) > 0 {
				options.WithTags(tags...)
			}

			if sortBy != "" {
				options.WithSortBy(sortBy)
			}

			if perPage > 0 {
				options.WithPerPage(perPage)
			}

			if page > 0 {
				options.WithPage(page)
			}

			resp, err := client.GetStories(commandContext(cmd), options)
			if err != nil {
				return fmt.Errorf("failed to list stories: %w", err)
			}

			return output(cmd.OutOrStdout(), resp.Body, func(table *tablewriter.Table) {
				table.Header("ID", "Name", "Full Slug", "UUID", "Published At")

				for _, story := range records(resp, "stories") {
					_ = table.Append(
						field(story, "id"),
						field(story, "name"),
						field(story, "full_slug"),
						field(story, "uuid"),
						field(story, "published_at"),
					)
				}
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&startsWith, "starts-with", "", "only stories whose full slug starts with this prefix")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "only stories with these tags, repeatable")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "sort field, e.g. created_at:desc")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "stories per page")
	cmd.Flags().IntVar(&page, "page", 0, "page number")

	return cmd
}

func outputStory(cmd *cobra.Command, resp *storyblok.Response) error {
	return output(cmd.OutOrStdout(), resp.Body, func(table *tablewriter.Table) {
		table.Header("Property", "Value")

		value, _ := resp.Body.Get("story")

		story, ok := value.(map[string]any)
		if !ok {
			_ = table.Append("body", resp.Body.Raw())

			return
		}

		component := constants.NotAvailable
		if content, ok := story["content"].(map[string]any); ok {
			component = field(content, "component")
		}

		_ = table.Append("ID", field(story, "id"))
		_ = table.Append("UUID", field(story, "uuid"))
		_ = table.Append("Name", field(story, "name"))
		_ = table.Append("Slug", field(story, "slug"))
		_ = table.Append("Full Slug", field(story, "full_slug"))
		_ = table.Append("Component", component)
		_ = table.Append("Tags", field(story, "tag_list"))
		_ = table.Append("Created At", field(story, "created_at"))
		_ = table.Append("Published At", field(story, "published_at"))
	})
}
