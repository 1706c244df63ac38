package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/internal/access"
)

var rlsCmd = &cobra.Command{
	Use:   "rls",
	Short: "Render row-level security artifacts",
	Long: `Renders the warehouse-side predicate function and the tag-matched
row filter policy. The statements are printed, not executed: policy
attachment happens through the warehouse's own tooling.`,
}

var rlsFunctionCmd = &cobra.Command{
	Use:   "function <name>",
	Short: "Render the customer-access predicate function",
	Args:  cobra.ExactArgs(1),
	RunE:  runRLSFunction,
}

var rlsPolicyCmd = &cobra.Command{
	Use:   "policy <name>",
	Short: "Render the tag-matched row filter policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runRLSPolicy,
}

func init() {
	rlsFunctionCmd.Flags().String("group-check", "", "membership predicate function (default is_member)")

	rlsPolicyCmd.Flags().String("function", "", "fully qualified predicate function (required)")
	rlsPolicyCmd.Flags().String("principal", "account users", "principal the policy applies to")
	rlsPolicyCmd.Flags().String("tag", "", "column tag the policy matches on (required)")
	rlsPolicyCmd.Flags().String("value", "true", "column tag value the policy matches on")
	rlsPolicyCmd.Flags().String("comment", "", "policy comment")
	rlsPolicyCmd.MarkFlagRequired("function")
	rlsPolicyCmd.MarkFlagRequired("tag")

	rlsCmd.AddCommand(rlsFunctionCmd, rlsPolicyCmd)
	rootCmd.AddCommand(rlsCmd)
}

func runRLSFunction(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	groupCheck, _ := cmd.Flags().GetString("group-check")
	fn := access.FilterFunction{
		Catalog:     app.cfg.Catalog,
		Schema:      app.cfg.Schema,
		Name:        args[0],
		AccessTable: app.cfg.QualifyTable(app.cfg.AccessTable),
		GroupCheck:  groupCheck,
	}

	sql, err := fn.SQL()
	if err != nil {
		return err
	}
	fmt.Println(sql)
	return nil
}

func runRLSPolicy(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	function, _ := cmd.Flags().GetString("function")
	principal, _ := cmd.Flags().GetString("principal")
	tag, _ := cmd.Flags().GetString("tag")
	value, _ := cmd.Flags().GetString("value")
	comment, _ := cmd.Flags().GetString("comment")

	policy := access.FilterPolicy{
		Catalog:     app.cfg.Catalog,
		Schema:      app.cfg.Schema,
		Name:        args[0],
		Comment:     comment,
		FunctionFQN: function,
		Principal:   principal,
		TagName:     tag,
		TagValue:    value,
	}
	fmt.Println(policy.SQL())
	return nil
}
