// One-off: re-encrypt every vault collection under a new password. Run with the server stopped.
// Usage: go run ./cmd/vault_rekey [dir]
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/privacy-wallet/internal/config"
	"github.com/AlexZinkM/privacy-wallet/internal/crypto"
	"github.com/AlexZinkM/privacy-wallet/internal/vault"
)

func main() {
	dir := os.Getenv("DATA_DIR")
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if dir == "" {
		dir = "./data"
	}
	if _, err := os.Stat(filepath.Join(dir, vault.MetaFile)); err != nil {
		fmt.Fprintln(os.Stderr, "no vault in", dir)
		os.Exit(1)
	}

	oldPassword, err := config.ReadPassword("Current vault password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(oldPassword)

	newPassword, err := config.ReadPassword("New vault password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(newPassword)

	confirm, err := config.ReadPassword("Repeat new password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(confirm)
	if !bytes.Equal(newPassword, confirm) {
		fmt.Fprintln(os.Stderr, "passwords do not match")
		os.Exit(1)
	}

	if err := vault.Rekey(dir, oldPassword, newPassword, crypto.DefaultKDF); err != nil {
		fmt.Fprintln(os.Stderr, "rekey failed:", err)
		os.Exit(1)
	}
	fmt.Println("vault re-encrypted:", dir)
}
