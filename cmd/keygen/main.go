package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"bfs-chain/utils"
	"bfs-chain/wallet"
)

// keygen writes a fresh private key that [simulator] miner_key_file can point at.
func main() {
	out := flag.String("out", "./miner.key", "file to write the hex private key to")
	flag.Parse()

	if err := generate(os.Stdout, *out); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generate(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	wlt, err := wallet.New()
	if err != nil {
		return err
	}
	if err := wlt.SaveFile(path); err != nil {
		return fmt.Errorf("save key: %w", err)
	}

	fmt.Fprintf(w, "key:     %s\n", path)
	fmt.Fprintf(w, "address: %s\n", wlt.Address())
	fmt.Fprintf(w, "base58:  %s\n", utils.EncodeToBase58(wlt.Address()))
	return nil
}
