package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/demurrage/decay"
	"github.com/xraph/demurrage/types"
)

var factorCmd = &cobra.Command{
	Use:   "factor",
	Short: "Print the fraction of a balance left after n periods",
	RunE:  runFactor,
}

func init() {
	factorCmd.Flags().String("rate", "0.01", "demurrage rate per period")
	factorCmd.Flags().Int64("periods", 1, "number of elapsed periods")
	factorCmd.Flags().String("amount", "", "optional token amount to decay")
}

func runFactor(cmd *cobra.Command, _ []string) error {
	rawRate, _ := cmd.Flags().GetString("rate")
	periods, _ := cmd.Flags().GetInt64("periods")
	rawAmount, _ := cmd.Flags().GetString("amount")

	rate, err := types.ParseRate(rawRate)
	if err != nil {
		return fmt.Errorf("--rate: %w", err)
	}
	if periods < 0 {
		return fmt.Errorf("--periods must not be negative")
	}

	factor := decay.CompoundFactor(rate, periods)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "factor: %s\n", factor)

	if rawAmount != "" {
		amount, err := types.ParseTokens(rawAmount)
		if err != nil {
			return fmt.Errorf("--amount: %w", err)
		}
		fmt.Fprintf(out, "balance: %s\n", amount.MulRate(factor).TokenString())
	}
	return nil
}
