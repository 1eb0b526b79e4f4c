package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the compiled category rules in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			compiled, err := ctx.compileRules()
			if err != nil {
				return err
			}

			headers := []string{"#", "GROUP", "CATEGORY", "KEYWORDS", "MATCH ALL"}
			rows := make([][]string, 0, compiled.Len())
			for i, rule := range compiled.Rules() {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					rule.MainGroup,
					rule.Category,
					strings.Join(rule.Keywords, ", "),
					yesNo(rule.MatchAll),
				})
			}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}
