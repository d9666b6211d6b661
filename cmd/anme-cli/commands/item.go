package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/avatarnftme/anme-mint/internal/rpc"
	"github.com/spf13/cobra"
)

func itemCmd() *cobra.Command {
	var showURI bool
	cmd := &cobra.Command{
		Use:   "item <id>",
		Short: "Show an issued item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			if showURI {
				var res rpc.URIResult
				if done, err := call(cmd, "item_getURI", rpc.IDParam{ID: id}, &res); done || err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.URI)
				return nil
			}

			var it rpc.ItemResult
			if done, err := call(cmd, "item_get", rpc.IDParam{ID: id}, &it); done || err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			a := it.Attributes
			fmt.Fprintf(out, "Item:     %d\n", it.ID)
			fmt.Fprintf(out, "Owner:    %s\n", it.Owner)
			fmt.Fprintf(out, "Minted:   %s\n", time.Unix(it.MintedAt, 0).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "Name:     %s %s\n", a.FirstName, a.LastName)
			fmt.Fprintf(out, "Body:     %s, %s outfit, %s skin\n", a.BodyType, a.OutfitGender, a.SkinTone)
			fmt.Fprintf(out, "Image:    %s\n", a.ImageURI)
			if a.Website != "" {
				fmt.Fprintf(out, "Website:  %s\n", a.Website)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showURI, "uri", false, "print the token URI instead")
	return cmd
}
