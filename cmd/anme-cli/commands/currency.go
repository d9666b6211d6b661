package commands

import (
	"fmt"

	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/spf13/cobra"
)

func currencyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Inspect and register alternate payment currencies",
	}
	cmd.AddCommand(currencyListCmd(), currencyFeedCmd(), currencyAddCmd())
	return cmd
}

func currencyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered currencies and their feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []rpc.CurrencyResult
			if done, err := call(cmd, "currency_list", nil, &list); done || err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No alternate currencies registered")
				return nil
			}
			for _, c := range list {
				fmt.Fprintf(out, "%s  feed %s\n", c.Currency, c.Feed)
			}
			return nil
		},
	}
}

func currencyFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed <currency>",
		Short: "Show the price feed bound to a currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.CurrencyResult
			if done, err := call(cmd, "currency_getFeed", rpc.CurrencyParam{Currency: args[0]}, &res); done || err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Feed)
			return nil
		},
	}
}

func currencyAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <currency> <feed>",
		Short: "Register a currency or rebind its feed (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminCall(cmd, "currency_add", rpc.AddCurrencyRequest{
				Currency: args[0],
				Feed:     args[1],
			})
		},
	}
}
