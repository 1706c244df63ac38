package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/internal/access"
	"github.com/tagwarden/tagwarden/internal/types"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage group customer access rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List access rules",
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an access rule",
	RunE:  runRulesAdd,
}

var rulesUpdateCmd = &cobra.Command{
	Use:   "update <rule-id>",
	Short: "Replace an access rule's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesUpdate,
}

var rulesExpireCmd = &cobra.Command{
	Use:   "expire <rule-id>",
	Short: "Expire an access rule today",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesExpire,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <rule-id>",
	Short: "Delete an expired access rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check <group> <customer-id>",
	Short: "Evaluate a group's visibility of one customer id",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesCheck,
}

func init() {
	rulesListCmd.Flags().String("group", "", "filter by group name")
	rulesListCmd.Flags().String("status", "", "filter by status (active, expired)")
	rulesListCmd.Flags().Int64("customer-id", -1, "keep only rules whose explicit id set contains this id")

	for _, c := range []*cobra.Command{rulesAddCmd, rulesUpdateCmd} {
		c.Flags().String("group", "", "group name (required)")
		c.Flags().String("customer-ids", "", `customer id spec, e.g. "1,2,5-8" (empty means no explicit list)`)
		c.Flags().String("access-type", "", "INCLUDE or EXCLUDE (required)")
		c.Flags().String("effective", "", "effective date YYYY-MM-DD (required)")
		c.Flags().String("expiration", "", "expiration date YYYY-MM-DD (empty means open-ended)")
		c.Flags().String("notes", "", "free-text notes")
	}

	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesUpdateCmd, rulesExpireCmd, rulesDeleteCmd, rulesCheckCmd)
	rootCmd.AddCommand(rulesCmd)
}

func ruleInputFromFlags(cmd *cobra.Command) (access.RuleInput, error) {
	group, _ := cmd.Flags().GetString("group")
	idSpec, _ := cmd.Flags().GetString("customer-ids")
	accessType, _ := cmd.Flags().GetString("access-type")
	effective, _ := cmd.Flags().GetString("effective")
	expiration, _ := cmd.Flags().GetString("expiration")
	notes, _ := cmd.Flags().GetString("notes")

	ids, err := access.ParseCustomerIDs(idSpec)
	if err != nil {
		return access.RuleInput{}, err
	}

	effectiveDate, err := time.Parse("2006-01-02", effective)
	if err != nil {
		return access.RuleInput{}, fmt.Errorf("invalid --effective date %q: %w", effective, err)
	}

	var expirationDate *time.Time
	if expiration != "" {
		d, err := time.Parse("2006-01-02", expiration)
		if err != nil {
			return access.RuleInput{}, fmt.Errorf("invalid --expiration date %q: %w", expiration, err)
		}
		expirationDate = &d
	}

	return access.RuleInput{
		GroupName:      group,
		CustomerIDs:    ids,
		AccessType:     types.AccessType(accessType),
		EffectiveDate:  effectiveDate,
		ExpirationDate: expirationDate,
		Notes:          notes,
	}, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	filters := access.ListFilters{}
	filters.GroupName, _ = cmd.Flags().GetString("group")
	filters.Status, _ = cmd.Flags().GetString("status")
	if id, _ := cmd.Flags().GetInt64("customer-id"); id >= 0 {
		filters.CustomerID = &id
	}

	rules, err := app.rules.List(app.ctx(), filters)
	if err != nil {
		return err
	}

	for _, r := range rules {
		expiration := "open-ended"
		if r.ExpirationDate != nil {
			expiration = r.ExpirationDate.Format("2006-01-02")
		}
		fmt.Printf("%s  %-20s %-7s ids=[%s] %s -> %s\n",
			r.ID, r.GroupName, r.AccessType,
			access.RenderCustomerIDs(r.CustomerIDs),
			r.EffectiveDate.Format("2006-01-02"), expiration)
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	if err := app.requireAdmin(ctx); err != nil {
		return err
	}

	input, err := ruleInputFromFlags(cmd)
	if err != nil {
		return err
	}

	id, err := app.rules.Add(ctx, input)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runRulesUpdate(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	if err := app.requireAdmin(ctx); err != nil {
		return err
	}

	id, err := types.ParseRuleID(args[0])
	if err != nil {
		return err
	}
	input, err := ruleInputFromFlags(cmd)
	if err != nil {
		return err
	}
	return app.rules.Update(ctx, id, input)
}

func runRulesExpire(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	if err := app.requireAdmin(ctx); err != nil {
		return err
	}

	id, err := types.ParseRuleID(args[0])
	if err != nil {
		return err
	}
	return app.rules.Expire(ctx, id)
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	if err := app.requireAdmin(ctx); err != nil {
		return err
	}

	id, err := types.ParseRuleID(args[0])
	if err != nil {
		return err
	}
	return app.rules.Delete(ctx, id)
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := app.ctx()
	group := args[0]
	var customerID int64
	if _, err := fmt.Sscanf(args[1], "%d", &customerID); err != nil {
		return fmt.Errorf("invalid customer id %q: %w", args[1], err)
	}

	rules, err := app.rules.List(ctx, access.ListFilters{GroupName: group})
	if err != nil {
		return err
	}

	statements := access.Evaluate(rules, customerID, time.Now().UTC())
	if len(statements) == 0 {
		fmt.Printf("no active rule for group %s has an opinion on customer %d\n", group, customerID)
		return nil
	}
	for _, s := range statements {
		verdict := "hidden"
		if s.Visible {
			verdict = "visible"
		}
		fmt.Printf("%s  %-7s unrestricted=%-5v customer %d %s\n",
			s.RuleID, s.AccessType, s.Unrestricted, customerID, verdict)
	}
	return nil
}
