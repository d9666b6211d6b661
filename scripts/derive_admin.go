// derive_admin.go prints the pubkey and address of the admin key derived
// from a mnemonic read on stdin, for use as mint.admin.
// Usage: go run scripts/derive_admin.go [index] < mnemonic.txt
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/avatarnftme/anme-mint/internal/adminkey"
)

func main() {
	var index uint32
	if len(os.Args) > 1 {
		n, err := strconv.ParseUint(os.Args[1], 10, 32)
		if err != nil {
			fmt.Fprintln(os.Stderr, "usage: derive_admin [index] < mnemonic")
			os.Exit(1)
		}
		index = uint32(n)
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	key, err := adminkey.FromMnemonic(strings.Join(strings.Fields(line), " "), "", index)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer key.Zero()
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(key.PublicKey()))
	fmt.Printf("address=%s\n", key.Address())
}
