package commands

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/avatarnftme/anme-mint/internal/registry"
	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the collection and its pricing state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var info rpc.InfoResult
			if done, err := call(cmd, "mint_getInfo", nil, &info); done || err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Collection:   %s (%s)\n", info.Name, info.Symbol)
			fmt.Fprintf(out, "Items:        %d\n", info.Count)
			fmt.Fprintf(out, "Current fee:  %s\n", formatNative(info.CurrentFee))
			fmt.Fprintf(out, "Initial fee:  %s\n", formatNative(info.InitialPrice))
			fmt.Fprintf(out, "Window:       %d/%d mints\n", info.MintsSinceLastIncrement, info.IncrementThreshold)
			fmt.Fprintf(out, "Collector:    %s\n", info.Collector)
			fmt.Fprintf(out, "Spender:      %s\n", info.Spender)
			fmt.Fprintf(out, "Native feed:  %s\n", info.NativeFeed)
			return nil
		},
	}
}

func quoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote [currency]",
		Short: "Quote the current fee, optionally in an alternate currency",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params interface{}
			if len(args) == 1 {
				params = rpc.CurrencyParam{Currency: args[0]}
			}
			var q rpc.QuoteResult
			if done, err := call(cmd, "mint_quote", params, &q); done || err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (fee %s)\n", q.Amount, q.Currency, formatNative(q.Fee))
			return nil
		},
	}
}

func mintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint an item",
	}
	cmd.AddCommand(mintNativeCmd(), mintCurrencyCmd())
	return cmd
}

func mintNativeCmd() *cobra.Command {
	var (
		owner  string
		amount string
		af     attrFlags
	)
	cmd := &cobra.Command{
		Use:   "native",
		Short: "Mint paying the fee in the native currency",
		Long: `Mint paying the fee in the native currency. The request is signed
with --key, whose address pays and receives the item.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := af.attributes(cmd.Flags())
			if err != nil {
				return err
			}
			key, err := loadKey(cmd)
			if err != nil {
				return err
			}
			defer key.Zero()
			if owner, err = signerAccount(key, "owner", owner); err != nil {
				return err
			}
			var value *big.Int
			if amount == "" {
				var info rpc.InfoResult
				if err := client.CallContext(cmd.Context(), "mint_getInfo", nil, &info); err != nil {
					return fmt.Errorf("mint_getInfo: %w", err)
				}
				if value, err = types.ParseAmount(info.CurrentFee); err != nil {
					return err
				}
			} else if value, err = types.ParseUnits(amount, types.NativeDecimals); err != nil {
				return fmt.Errorf("amount: %w", err)
			}

			var res rpc.MintResult
			done, err := signedCall(cmd, key, "mint_native", rpc.MintNativeParam{
				Owner:      owner,
				Amount:     value.String(),
				Attributes: attrs,
			}, &res)
			if done || err != nil {
				return err
			}
			printMint(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "paying account that receives the item (default: the key's address)")
	cmd.Flags().StringVar(&amount, "amount", "", "payment in native units (default: current fee)")
	af.register(cmd.Flags())
	return cmd
}

func mintCurrencyCmd() *cobra.Command {
	var (
		currency string
		payer    string
		amount   string
		af       attrFlags
	)
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Mint paying in a registered alternate currency",
		Long: `Mint paying in a registered alternate currency. The request is
signed with --key, whose address must hold the allowance and receives the
item.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := af.attributes(cmd.Flags())
			if err != nil {
				return err
			}
			key, err := loadKey(cmd)
			if err != nil {
				return err
			}
			defer key.Zero()
			if payer, err = signerAccount(key, "payer", payer); err != nil {
				return err
			}
			if amount == "" {
				var q rpc.QuoteResult
				if err := client.CallContext(cmd.Context(), "mint_quote", rpc.CurrencyParam{Currency: currency}, &q); err != nil {
					return fmt.Errorf("mint_quote: %w", err)
				}
				amount = q.Amount
			} else if _, err := types.ParseAmount(amount); err != nil {
				return fmt.Errorf("amount: %w", err)
			}

			var res rpc.MintResult
			done, err := signedCall(cmd, key, "mint_withCurrency", rpc.MintCurrencyParam{
				Currency:   currency,
				Payer:      payer,
				Amount:     amount,
				Attributes: attrs,
			}, &res)
			if done || err != nil {
				return err
			}
			printMint(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "currency address")
	cmd.Flags().StringVar(&payer, "payer", "", "account whose allowance pays and that receives the item (default: the key's address)")
	cmd.Flags().StringVar(&amount, "amount", "", "payment in the currency's base units (default: current quote)")
	_ = cmd.MarkFlagRequired("currency")
	af.register(cmd.Flags())
	return cmd
}

// signerAccount returns the address a mint is made for. It defaults to the
// signing key and must match it when given.
func signerAccount(key *crypto.PrivateKey, flag, given string) (string, error) {
	self := key.Address()
	if given == "" {
		return self.String(), nil
	}
	addr, err := types.ParseAddress(given)
	if err != nil {
		return "", fmt.Errorf("--%s: %w", flag, err)
	}
	if addr != self {
		return "", fmt.Errorf("--%s %s is not the address of key %q (%s)", flag, addr, keyName, self)
	}
	return addr.String(), nil
}

func printMint(cmd *cobra.Command, res rpc.MintResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Minted item %d\n", res.ID)
	fmt.Fprintf(out, "Receipt:  %s\n", res.Receipt.ID)
	fmt.Fprintf(out, "Paid:     %s of %s (%s)\n", res.Receipt.Amount, res.Receipt.Required, res.Receipt.Currency)
	if res.FeeIncremented {
		fmt.Fprintf(out, "Fee doubled to %s\n", formatNative(res.NextFee))
	}
}

// attrFlags collects item attributes from an optional JSON file and
// individual flags. Flags win over the file.
type attrFlags struct {
	file  string
	attrs registry.Attributes
}

func (a *attrFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&a.file, "attributes", "", "JSON file with item attributes")
	fs.StringVar(&a.attrs.FirstName, "first-name", "", "avatar first name")
	fs.StringVar(&a.attrs.LastName, "last-name", "", "avatar last name")
	fs.StringVar(&a.attrs.Website, "website", "", "avatar website")
	fs.StringVar(&a.attrs.BodyType, "body-type", "", "body type")
	fs.StringVar(&a.attrs.OutfitGender, "outfit-gender", "", "outfit gender")
	fs.StringVar(&a.attrs.SkinTone, "skin-tone", "", "skin tone")
	fs.StringVar(&a.attrs.CreatedAt, "created-at", "", "creation timestamp (default: now)")
	fs.StringVar(&a.attrs.ImageURI, "image", "", "image URI")
}

func (a *attrFlags) attributes(fs *pflag.FlagSet) (registry.Attributes, error) {
	var out registry.Attributes
	if a.file != "" {
		data, err := os.ReadFile(a.file)
		if err != nil {
			return out, err
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", a.file, err)
		}
	}
	overrides := []struct {
		flag string
		dst  *string
		src  string
	}{
		{"first-name", &out.FirstName, a.attrs.FirstName},
		{"last-name", &out.LastName, a.attrs.LastName},
		{"website", &out.Website, a.attrs.Website},
		{"body-type", &out.BodyType, a.attrs.BodyType},
		{"outfit-gender", &out.OutfitGender, a.attrs.OutfitGender},
		{"skin-tone", &out.SkinTone, a.attrs.SkinTone},
		{"created-at", &out.CreatedAt, a.attrs.CreatedAt},
		{"image", &out.ImageURI, a.attrs.ImageURI},
	}
	for _, o := range overrides {
		if fs.Changed(o.flag) {
			*o.dst = o.src
		}
	}
	if out.CreatedAt == "" {
		out.CreatedAt = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// formatNative renders base units as native units, falling back to the
// raw string when it does not parse.
func formatNative(s string) string {
	v, err := types.ParseAmount(s)
	if err != nil {
		return s
	}
	return types.FormatUnits(v, types.NativeDecimals)
}
