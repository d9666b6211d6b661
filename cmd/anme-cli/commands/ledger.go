package commands

import (
	"fmt"

	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/spf13/cobra"
)

// The ledger commands only work against a daemon started with --dev-ledger.
func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Fund accounts on a development daemon",
	}
	cmd.AddCommand(ledgerCreditCmd(), ledgerApproveCmd(), ledgerBalanceCmd())
	return cmd
}

func ledgerCreditCmd() *cobra.Command {
	var currency string
	cmd := &cobra.Command{
		Use:   "credit <account> <amount>",
		Short: "Mint development balance to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.BalanceResult
			done, err := call(cmd, "ledger_credit", rpc.LedgerCreditParam{
				Currency: currency,
				Account:  args[0],
				Amount:   args[1],
			}, &res)
			if done || err != nil {
				return err
			}
			printBalance(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "currency address (default: native)")
	return cmd
}

func ledgerApproveCmd() *cobra.Command {
	var spender string
	cmd := &cobra.Command{
		Use:   "approve <currency> <owner> <amount>",
		Short: "Set an allowance for the mint spender",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if spender == "" {
				var info rpc.InfoResult
				if err := client.CallContext(cmd.Context(), "mint_getInfo", nil, &info); err != nil {
					return fmt.Errorf("mint_getInfo: %w", err)
				}
				spender = info.Spender
			}
			var res rpc.BalanceResult
			done, err := call(cmd, "ledger_approve", rpc.LedgerApproveParam{
				Currency: args[0],
				Owner:    args[1],
				Spender:  spender,
				Amount:   args[2],
			}, &res)
			if done || err != nil {
				return err
			}
			printBalance(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&spender, "spender", "", "spender address (default: the daemon's mint spender)")
	return cmd
}

func ledgerBalanceCmd() *cobra.Command {
	var (
		currency string
		spender  string
	)
	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show a development balance and optional allowance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.BalanceResult
			done, err := call(cmd, "ledger_getBalance", rpc.LedgerBalanceParam{
				Currency: currency,
				Account:  args[0],
				Spender:  spender,
			}, &res)
			if done || err != nil {
				return err
			}
			printBalance(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "currency address (default: native)")
	cmd.Flags().StringVar(&spender, "spender", "", "also show the allowance granted to spender")
	return cmd
}

func printBalance(cmd *cobra.Command, res rpc.BalanceResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Account:   %s\n", res.Account)
	fmt.Fprintf(out, "Currency:  %s\n", res.Currency)
	fmt.Fprintf(out, "Balance:   %s\n", res.Balance)
	if res.Allowance != "" {
		fmt.Fprintf(out, "Allowance: %s\n", res.Allowance)
	}
}
