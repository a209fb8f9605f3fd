package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"bfs-chain/block"
	bfscommon "bfs-chain/common"
	"bfs-chain/config"
	"bfs-chain/log"
	"bfs-chain/net"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fail(err)
	}
	log.Init(&cfg.Log)

	file := flag.String("file", "", "exported block file to validate and print")
	node := flag.String("node", "", "explorer URL of a running node (defaults to [net] node_url)")
	limit := flag.Int("limit", 10, "number of blocks and accounts to list")
	flag.Parse()

	if *file != "" {
		err = inspectFile(os.Stdout, *file)
	} else {
		url := *node
		if url == "" {
			url = cfg.Net.NodeURL
		}
		err = inspectNode(os.Stdout, net.New(url), *limit)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	color.New(color.FgRed).Fprintln(os.Stderr, err)
	os.Exit(1)
}

// inspectFile reloads a block, which re-validates its transactions and checks
// that the stored hash matches the recomputed one.
func inspectFile(w io.Writer, path string) error {
	b, err := block.NewValidator().ReadFile(path)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", path, err)
	}

	header := b.Header()
	info := b.Info()
	color.New(color.FgGreen).Fprintf(w, "Block %d %s (hash verified)\n", b.Number(), b.Hash().Hex())
	fmt.Fprintf(w, "Prev hash: %s\n", header.PrevHash.Hex())
	fmt.Fprintf(w, "Merkle root: %s, height %d\n", header.Root.Hex(), b.MerkleTree().Height())
	fmt.Fprintf(w, "Created: %s\n", humanize.Time(time.Unix(header.CreatedAt, 0)))
	fmt.Fprintf(w, "Txs: %d, volume: %s, fees: %s\n\n", b.Len(), bfscommon.FormatAmount(info.Volume), bfscommon.FormatAmount(info.TotalFees))

	table := tablewriter.NewTable(w)
	table.Header([]string{"Hash", "From", "To", "Value", "Fee", "Nonce"})
	for _, tx := range b.Txs() {
		_ = table.Append([]string{
			bfscommon.ShortHash(tx.Hash().Hex()),
			bfscommon.ShortHash(tx.From),
			bfscommon.ShortHash(tx.To),
			bfscommon.FormatAmount(tx.Value),
			bfscommon.FormatAmount(tx.Fee),
			strconv.FormatUint(tx.Nonce, 10),
		})
	}
	return table.Render()
}

func inspectNode(w io.Writer, client *net.Client, limit int) error {
	head, err := client.Head()
	if err != nil {
		return fmt.Errorf("fetch head: %w", err)
	}
	fmt.Fprintf(w, "Head %d %s, difficulty %d, reward %s\n", head.Number, head.Hash, head.Difficulty, bfscommon.FormatAmount(head.Reward))
	fmt.Fprintf(w, "Accounts: %d, supply: %s\n\n", head.Accounts, bfscommon.FormatAmount(head.TotalSupply))

	blocks, err := client.Blocks(limit)
	if err != nil {
		return fmt.Errorf("fetch blocks: %w", err)
	}
	blockTable := tablewriter.NewTable(w)
	blockTable.Header([]string{"Number", "Hash", "Txs", "Volume", "Created"})
	for _, b := range blocks {
		_ = blockTable.Append([]string{
			strconv.FormatUint(b.Number, 10),
			bfscommon.ShortHash(b.Hash),
			strconv.FormatUint(b.NTxs, 10),
			bfscommon.FormatAmount(b.Volume),
			humanize.Time(time.Unix(b.Time, 0)),
		})
	}
	if err := blockTable.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	accounts, err := client.TopAccounts(limit)
	if err != nil {
		return fmt.Errorf("fetch accounts: %w", err)
	}
	accountTable := tablewriter.NewTable(w)
	accountTable.Header([]string{"Address", "Base58", "Balance", "Nonce"})
	for _, acc := range accounts {
		_ = accountTable.Append([]string{
			bfscommon.ShortHash(acc.Address),
			acc.Base58,
			bfscommon.FormatAmount(acc.Balance),
			strconv.FormatUint(acc.Nonce, 10),
		})
	}
	return accountTable.Render()
}
