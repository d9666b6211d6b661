package commands

import (
	"encoding/json"
	"fmt"

	"github.com/avatarnftme/anme-mint/internal/adminkey"
	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/spf13/cobra"
)

func contractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Inspect and edit collection metadata",
	}
	cmd.AddCommand(contractInfoCmd(), contractSetWebpageCmd(), contractSetURICmd())
	return cmd
}

func contractInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show collection metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c rpc.ContractResult
			if done, err := call(cmd, "contract_getInfo", nil, &c); done || err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:          %s\n", c.Name)
			fmt.Fprintf(out, "Symbol:        %s\n", c.Symbol)
			fmt.Fprintf(out, "Webpage:       %s\n", c.Webpage)
			fmt.Fprintf(out, "Description:   %s\n", c.Description)
			fmt.Fprintf(out, "Image:         %s\n", c.Image)
			fmt.Fprintf(out, "External link: %s\n", c.ExternalLink)
			return nil
		},
	}
}

func contractSetWebpageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-webpage <uri>",
		Short: "Set the collection webpage (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminCall(cmd, "contract_setWebpage", rpc.SetWebpageRequest{URI: args[0]})
		},
	}
}

func contractSetURICmd() *cobra.Command {
	var body rpc.SetContractURIRequest
	cmd := &cobra.Command{
		Use:   "set-uri",
		Short: "Set the collection-level metadata document (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminCall(cmd, "contract_setURI", body)
		},
	}
	cmd.Flags().StringVar(&body.Description, "description", "", "collection description")
	cmd.Flags().StringVar(&body.Image, "image", "", "collection image URI")
	cmd.Flags().StringVar(&body.ExternalLink, "external-link", "", "collection external link")
	return cmd
}

// adminCall signs body with the admin key and sends it as method.
func adminCall(cmd *cobra.Command, method string, body interface{}) error {
	key, err := loadKey(cmd)
	if err != nil {
		return err
	}
	defer key.Zero()
	var res rpc.OKResult
	if done, err := signedCall(cmd, key, method, body, &res); done || err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return nil
}

// signedCall sends body as method in an envelope signed by key.
func signedCall(cmd *cobra.Command, key *crypto.PrivateKey, method string, body, result interface{}) (bool, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return false, err
	}
	auth, err := adminkey.Sign(key, method, raw)
	if err != nil {
		return false, err
	}
	return call(cmd, method, rpc.SignedParam{Request: raw, Auth: auth}, result)
}
