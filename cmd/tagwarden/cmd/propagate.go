package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/internal/propagate"
)

var propagateCmd = &cobra.Command{
	Use:   "propagate",
	Short: "Propagate hierarchy tags to columns",
	Long: `Walks catalog, schema, and table tags carrying category lists,
unions the categories per table, and tags the target column on every
table that carries the required category and the column.`,
	RunE: runPropagate,
}

func init() {
	propagateCmd.Flags().String("parent-tag", "data_categories", "hierarchy tag whose value lists categories")
	propagateCmd.Flags().String("category", "", "category a table must carry to qualify (required)")
	propagateCmd.Flags().String("column", "", "column that must exist and receives the tag (required)")
	propagateCmd.Flags().String("column-tag", "", "tag name written to the column (required)")
	propagateCmd.Flags().String("column-value", "true", "tag value written to the column")
	propagateCmd.Flags().String("catalog", "", "narrow discovery to one catalog")
	propagateCmd.Flags().String("schema", "", "narrow discovery to one schema")
	propagateCmd.Flags().Bool("dry-run", false, "print the plan without executing it")
	propagateCmd.MarkFlagRequired("category")
	propagateCmd.MarkFlagRequired("column")
	propagateCmd.MarkFlagRequired("column-tag")

	rootCmd.AddCommand(propagateCmd)
}

func runPropagate(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	req := propagate.Request{}
	req.ParentTagName, _ = cmd.Flags().GetString("parent-tag")
	req.RequiredCategory, _ = cmd.Flags().GetString("category")
	req.ColumnName, _ = cmd.Flags().GetString("column")
	req.ColumnTagName, _ = cmd.Flags().GetString("column-tag")
	req.ColumnTagValue, _ = cmd.Flags().GetString("column-value")
	req.TargetCatalog, _ = cmd.Flags().GetString("catalog")
	req.TargetSchema, _ = cmd.Flags().GetString("schema")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := app.ctx()
	plan, err := app.planner.BuildPlan(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("%d action(s) planned\n", len(plan))
	for i, action := range plan {
		if i >= app.cfg.PreviewLimit {
			fmt.Printf("... %d more\n", len(plan)-app.cfg.PreviewLimit)
			break
		}
		fmt.Println(action.Statement)
	}

	if dryRun || len(plan) == 0 {
		return nil
	}

	if err := app.requireAdmin(ctx); err != nil {
		return err
	}

	result := app.executor.Apply(ctx, plan)
	fmt.Printf("executed %d/%d, failed %d\n", len(result.Executed), result.Planned, result.Failed)
	return result.FirstErr
}
