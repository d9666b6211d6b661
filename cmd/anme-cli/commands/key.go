package commands

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/avatarnftme/anme-mint/internal/adminkey"
	"github.com/avatarnftme/anme-mint/pkg/crypto"
	"github.com/spf13/cobra"
)

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the administrator key",
	}
	cmd.AddCommand(keyNewCmd(), keyImportCmd(), keyAddressCmd())
	return cmd
}

func keyNewCmd() *cobra.Command {
	var index uint32
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a mnemonic and store the derived admin key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic, err := adminkey.GenerateMnemonic()
			if err != nil {
				return err
			}
			key, err := adminkey.FromMnemonic(mnemonic, "", index)
			if err != nil {
				return err
			}
			defer key.Zero()
			if err := saveKey(cmd, key); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Address:  %s\n", key.Address())
			fmt.Fprintf(out, "Key file: %s\n\n", keyPath())
			fmt.Fprintln(out, "Write down this mnemonic. It is the only way to recover the key:")
			fmt.Fprintf(out, "\n  %s\n", mnemonic)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&index, "index", 0, "derivation index")
	return cmd
}

func keyImportCmd() *cobra.Command {
	var (
		index      uint32
		passphrase string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore the admin key from a mnemonic read on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Mnemonic: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read mnemonic: %w", err)
			}
			mnemonic := strings.Join(strings.Fields(line), " ")
			key, err := adminkey.FromMnemonic(mnemonic, passphrase, index)
			if err != nil {
				return err
			}
			defer key.Zero()
			if err := saveKey(cmd, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", key.Address())
			return nil
		},
	}
	cmd.Flags().Uint32Var(&index, "index", 0, "derivation index")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "optional BIP-39 passphrase")
	return cmd
}

func keyAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the admin address without decrypting the key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := adminkey.ReadAddress(keyPath())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
}

func saveKey(cmd *cobra.Command, key *crypto.PrivateKey) error {
	password, err := readPassword(cmd, "New password: ")
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return fmt.Errorf("password must not be empty")
	}
	if _, ok := passwordFromEnv(); !ok {
		confirm, err := readPassword(cmd, "Repeat password: ")
		if err != nil {
			return err
		}
		if !bytes.Equal(password, confirm) {
			return fmt.Errorf("passwords do not match")
		}
	}
	return adminkey.Save(keyPath(), key, password, adminkey.DefaultParams())
}

// loadKey decrypts the admin key for signing.
func loadKey(cmd *cobra.Command) (*crypto.PrivateKey, error) {
	password, err := readPassword(cmd, "Password: ")
	if err != nil {
		return nil, err
	}
	return adminkey.Load(keyPath(), password)
}
