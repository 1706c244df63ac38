package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/internal/types"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Browse metadata and manage table and column tags",
}

var tagsCatalogsCmd = &cobra.Command{
	Use:   "catalogs",
	Short: "List catalogs",
	RunE:  runTagsCatalogs,
}

var tagsSchemasCmd = &cobra.Command{
	Use:   "schemas <catalog>",
	Short: "List schemas in a catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsSchemas,
}

var tagsTablesCmd = &cobra.Command{
	Use:   "tables <catalog> <schema>",
	Short: "List tables in a schema",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagsTables,
}

var tagsShowCmd = &cobra.Command{
	Use:   "show <catalog> <schema> <table>",
	Short: "Show the table and column tags of one table",
	Args:  cobra.ExactArgs(3),
	RunE:  runTagsShow,
}

var tagsOptionsCmd = &cobra.Command{
	Use:   "options <catalog> <schema>",
	Short: "List tag names already in use in a schema",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagsOptions,
}

var tagsCoverageCmd = &cobra.Command{
	Use:   "coverage <catalog> <schema>",
	Short: "Count tagged tables and columns in a schema",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagsCoverage,
}

var tagsApplyCmd = &cobra.Command{
	Use:   "apply <catalog> <schema> <table>",
	Short: "Apply a tag to a table, or to one column with --column",
	Args:  cobra.ExactArgs(3),
	RunE:  runTagsApply,
}

var tagsRemoveCmd = &cobra.Command{
	Use:   "remove <catalog> <schema> <table>",
	Short: "Remove a tag from a table, or from one column with --column",
	Args:  cobra.ExactArgs(3),
	RunE:  runTagsRemove,
}

func init() {
	tagsApplyCmd.Flags().String("tag", "", "tag name (required)")
	tagsApplyCmd.Flags().String("value", "", "tag value")
	tagsApplyCmd.Flags().String("column", "", "apply to this column instead of the table")
	tagsApplyCmd.MarkFlagRequired("tag")

	tagsRemoveCmd.Flags().String("tag", "", "tag name (required)")
	tagsRemoveCmd.Flags().String("column", "", "remove from this column instead of the table")
	tagsRemoveCmd.MarkFlagRequired("tag")

	tagsCmd.AddCommand(tagsCatalogsCmd, tagsSchemasCmd, tagsTablesCmd, tagsShowCmd, tagsOptionsCmd, tagsCoverageCmd, tagsApplyCmd, tagsRemoveCmd)
	rootCmd.AddCommand(tagsCmd)
}

func runTagsCatalogs(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	names, err := app.metadata.Catalogs(app.ctx())
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runTagsSchemas(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	names, err := app.metadata.Schemas(app.ctx(), args[0])
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runTagsTables(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	names, err := app.metadata.Tables(app.ctx(), args[0], args[1])
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runTagsShow(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	table := types.TableRef{Catalog: args[0], Schema: args[1], Table: args[2]}

	tableTags, err := app.metadata.TableTags(ctx, table)
	if err != nil {
		return err
	}
	columnTags, err := app.metadata.ColumnTags(ctx, table)
	if err != nil {
		return err
	}

	for _, b := range tableTags {
		fmt.Printf("table   %-30s %s=%s\n", table.FQN(), b.TagName, b.TagValue)
	}
	for _, b := range columnTags {
		fmt.Printf("column  %-30s %s=%s\n", table.FQN()+"."+b.Column, b.TagName, b.TagValue)
	}
	return nil
}

func runTagsOptions(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	names, err := app.metadata.TagOptions(app.ctx(), args[0], args[1])
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runTagsCoverage(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	coverage, err := app.metadata.TagCoverage(app.ctx(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("tagged tables:  %d\ntagged columns: %d\n", coverage.TaggedTables, coverage.TaggedColumns)
	return nil
}

func runTagsApply(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	if err := app.requireAdmin(ctx); err != nil {
		return err
	}

	table := types.TableRef{Catalog: args[0], Schema: args[1], Table: args[2]}
	tag, _ := cmd.Flags().GetString("tag")
	value, _ := cmd.Flags().GetString("value")
	column, _ := cmd.Flags().GetString("column")

	if column != "" {
		return app.tags.ApplyColumnTag(ctx, table, column, tag, value)
	}
	return app.tags.ApplyTableTag(ctx, table, tag, value)
}

func runTagsRemove(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	if err := app.requireAdmin(ctx); err != nil {
		return err
	}

	table := types.TableRef{Catalog: args[0], Schema: args[1], Table: args[2]}
	tag, _ := cmd.Flags().GetString("tag")
	column, _ := cmd.Flags().GetString("column")

	if column != "" {
		return app.tags.RemoveColumnTag(ctx, table, column, tag)
	}
	return app.tags.RemoveTableTag(ctx, table, tag)
}
