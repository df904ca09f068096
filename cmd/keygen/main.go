// Command keygen prints a new ed25519 key and the ledger address it controls.
package main

import (
	"crypto/ed25519"
	"flag"
	"fmt"
	"os"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/auth"
	"github.com/kkkkikiki/crowdfund/internal/units"
)

func main() {
	fund := flag.String("fund", "", "also print a LEDGER_GENESIS entry crediting this many SOL")
	flag.Parse()

	key, err := auth.GenerateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	addr := address.FromPublicKey(key.Public().(ed25519.PublicKey))

	fmt.Printf("address:     %s\n", addr)
	fmt.Printf("private key: %s\n", auth.EncodePrivateKey(key))

	if *fund != "" {
		lamports, err := units.ParseSOL(*fund)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("genesis:     %s:%d\n", addr, lamports)
	}
}
