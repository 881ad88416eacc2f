package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
)

func main() {
	n := 1
	if len(os.Args) > 1 {
		v, err := strconv.Atoi(os.Args[1])
		if err != nil || v < 1 {
			fmt.Println("Usage: go run cmd/keygen/main.go [count]")
			fmt.Println("Generates secp256k1 signer keys for the ledger.private_keys setting")
			os.Exit(1)
		}
		n = v
	}

	fmt.Println("Add these to your config.yaml:")
	fmt.Println("  ledger:")
	fmt.Println("    private_keys:")
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
			os.Exit(1)
		}
		addr := crypto.PubkeyToAddress(key.PublicKey)
		fmt.Printf("      - \"0x%s\" # %d: %s\n", hex.EncodeToString(crypto.FromECDSA(key)), i, addr.Hex())
	}
}
