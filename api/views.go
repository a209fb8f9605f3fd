package api

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"bfs-chain/block"
	"bfs-chain/state"
	"bfs-chain/types"
	"bfs-chain/utils"
)

// BlockSummary is a row of the block list.
type BlockSummary struct {
	Number uint64       `json:"number"`
	Hash   string       `json:"hash"`
	NTxs   uint64       `json:"n_txs"`
	Volume *uint256.Int `json:"volume"`
	Time   int64        `json:"time"`
}

type BlockView struct {
	BlockSummary
	PrevHash   string       `json:"prev_hash"`
	Root       string       `json:"root"`
	Mined      bool         `json:"mined"`
	TotalFees  *uint256.Int `json:"total_fees"`
	Difficulty uint64       `json:"diff,omitempty"`
	Reward     *uint256.Int `json:"reward,omitempty"`
	Miner      string       `json:"miner,omitempty"`
	Nonce      uint64       `json:"nonce,omitempty"`
	Txs        []*TxView    `json:"txs"`
}

type TxView struct {
	Number    uint64        `json:"number"`
	Hash      string        `json:"hash"`
	From      string        `json:"fr"`
	To        string        `json:"to"`
	Value     *uint256.Int  `json:"value"`
	Fee       *uint256.Int  `json:"fee"`
	Nonce     uint64        `json:"nonce"`
	Time      int64         `json:"time"`
	Signed    bool          `json:"signed"`
	Signature hexutil.Bytes `json:"signature,omitempty"`
}

type AccountView struct {
	Address string       `json:"address"`
	Base58  string       `json:"base58"`
	Balance *uint256.Int `json:"balance"`
	Nonce   uint64       `json:"nonce"`
}

type HeadView struct {
	Number      uint64       `json:"number"`
	Hash        string       `json:"hash"`
	Difficulty  uint64       `json:"diff"`
	Reward      *uint256.Int `json:"reward"`
	TotalSupply *uint256.Int `json:"total_supply"`
	Accounts    int          `json:"accounts"`
}

func newBlockSummary(b *block.Block) BlockSummary {
	header := b.Header()
	return BlockSummary{
		Number: header.BlockNumber,
		Hash:   b.Hash().Hex(),
		NTxs:   header.TxsNumber,
		Volume: b.Info().Volume,
		Time:   header.CreatedAt,
	}
}

func newBlockView(b *block.Block, mined *types.MiningBlockHeader) *BlockView {
	header := b.Header()
	view := &BlockView{
		BlockSummary: newBlockSummary(b),
		PrevHash:     header.PrevHash.Hex(),
		Root:         header.Root.Hex(),
		Mined:        header.Mined,
		TotalFees:    b.Info().TotalFees,
	}
	if mined != nil {
		view.Difficulty = mined.Difficulty
		view.Reward = mined.Reward
		view.Miner = mined.MinerAddress
		view.Nonce = mined.Nonce
	}
	for _, tx := range b.Txs() {
		view.Txs = append(view.Txs, newTxView(b.Number(), tx))
	}
	return view
}

func newTxView(number uint64, tx *types.Transaction) *TxView {
	return &TxView{
		Number:    number,
		Hash:      tx.Hash().Hex(),
		From:      tx.From,
		To:        tx.To,
		Value:     types.AmountOrZero(tx.Value),
		Fee:       types.AmountOrZero(tx.Fee),
		Nonce:     tx.Nonce,
		Time:      tx.Time,
		Signed:    tx.Signed,
		Signature: tx.Signature,
	}
}

func newAccountView(address string, acc state.AccountState) *AccountView {
	return &AccountView{
		Address: address,
		Base58:  utils.EncodeToBase58(address),
		Balance: acc.Balance,
		Nonce:   acc.Nonce,
	}
}
