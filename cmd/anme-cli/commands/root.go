// Package commands implements the anme-cli command tree.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/avatarnftme/anme-mint/config"
	"github.com/avatarnftme/anme-mint/internal/rpcclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// PasswordEnv supplies the key file password non-interactively.
const PasswordEnv = "ANME_PASSWORD"

var (
	rpcURL  string
	dataDir string
	keyName string
	jsonOut bool

	client *rpcclient.Client
)

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRoot().Execute()
}

// NewRoot builds the command tree.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "anme-cli",
		Short:         "Command-line client for the ANME issuance daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dataDir == "" {
				dataDir = config.DefaultDataDir()
			}
			client = rpcclient.New(rpcURL)
			return nil
		},
	}
	root.SetErr(os.Stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&rpcURL, "rpc", "http://127.0.0.1:8655", "daemon RPC endpoint")
	pf.StringVar(&dataDir, "datadir", "", "data directory holding the keystore (default "+config.DefaultDataDir()+")")
	pf.StringVar(&keyName, "key", "admin", "admin key file name inside the keystore")
	pf.BoolVar(&jsonOut, "json", false, "print raw JSON results")

	root.AddCommand(
		keyCmd(),
		infoCmd(),
		quoteCmd(),
		mintCmd(),
		itemCmd(),
		currencyCmd(),
		contractCmd(),
		ledgerCmd(),
	)
	return root
}

func keyPath() string {
	return filepath.Join(dataDir, "keystore", keyName+".json")
}

// readPassword prompts on the terminal unless ANME_PASSWORD is set.
func readPassword(cmd *cobra.Command, prompt string) ([]byte, error) {
	if pw, ok := passwordFromEnv(); ok {
		return pw, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(cmd.ErrOrStderr()) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func passwordFromEnv() ([]byte, bool) {
	pw, ok := os.LookupEnv(PasswordEnv)
	return []byte(pw), ok
}

// call invokes method and prints the result as JSON when --json is set.
// It reports whether the caller should skip its own formatting.
func call(cmd *cobra.Command, method string, params, result interface{}) (bool, error) {
	if jsonOut {
		var raw json.RawMessage
		if err := client.CallContext(cmd.Context(), method, params, &raw); err != nil {
			return false, fmt.Errorf("%s: %w", method, err)
		}
		return true, printJSON(cmd.OutOrStdout(), raw)
	}
	if err := client.CallContext(cmd.Context(), method, params, result); err != nil {
		return false, fmt.Errorf("%s: %w", method, err)
	}
	return false, nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
