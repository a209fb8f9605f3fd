package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

type Transaction struct {
	From      string        `json:"fr"`
	To        string        `json:"to"`
	Value     *uint256.Int  `json:"value"`
	Fee       *uint256.Int  `json:"fee"`
	Time      int64         `json:"time"`
	Nonce     uint64        `json:"nonce"`
	Signed    bool          `json:"signed"`
	Signature hexutil.Bytes `json:"signature,omitempty"`
}

// canonicalTx is the field subset that identifies a transaction. The signature
// and the signed flag are left out so signing never changes the hash.
type canonicalTx struct {
	From  string
	To    string
	Value *big.Int
	Fee   *big.Int
	Time  uint64
	Nonce uint64
}

func NewTransaction(from, to string, value, fee *uint256.Int, nonce uint64, time int64) *Transaction {
	return &Transaction{
		From:  from,
		To:    to,
		Value: value,
		Fee:   fee,
		Time:  time,
		Nonce: nonce,
	}
}

// CanonicalBytes returns the bytes that are hashed and signed.
func (tx *Transaction) CanonicalBytes() []byte {
	return mustEncode(&canonicalTx{
		From:  tx.From,
		To:    tx.To,
		Value: toBig(tx.Value),
		Fee:   toBig(tx.Fee),
		Time:  uint64(tx.Time),
		Nonce: tx.Nonce,
	})
}

func (tx *Transaction) Hash() common.Hash {
	return crypto.Keccak256Hash(tx.CanonicalBytes())
}

// IsCorrectlySigned reports whether the transaction carries a signature that
// verifies against its sender address.
func (tx *Transaction) IsCorrectlySigned(v Verifier) bool {
	if !tx.Signed || len(tx.Signature) == 0 {
		return false
	}
	return v.Verify(tx.From, tx.CanonicalBytes(), tx.Signature)
}

// IsSelfAddressed is true for coinbase style transactions.
func (tx *Transaction) IsSelfAddressed() bool {
	return tx.From == tx.To
}

func (tx *Transaction) Copy() *Transaction {
	cpy := *tx
	cpy.Value = AmountOrZero(tx.Value).Clone()
	cpy.Fee = AmountOrZero(tx.Fee).Clone()
	if tx.Signature != nil {
		cpy.Signature = append(hexutil.Bytes(nil), tx.Signature...)
	}
	return &cpy
}

func (tx *Transaction) String() string {
	return fmt.Sprintf("tx %s %s -> %s value=%s fee=%s nonce=%d",
		tx.Hash().Hex(), tx.From, tx.To, AmountOrZero(tx.Value).Dec(), AmountOrZero(tx.Fee).Dec(), tx.Nonce)
}

// AmountOrZero treats a missing amount as zero.
func AmountOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func toBig(v *uint256.Int) *big.Int {
	return AmountOrZero(v).ToBig()
}

func mustEncode(val interface{}) []byte {
	// Only fixed shapes of strings, unsigned integers, bools and hashes are
	// encoded here, which rlp always accepts.
	b, err := rlp.EncodeToBytes(val)
	if err != nil {
		panic(fmt.Sprintf("rlp encode %T: %v", val, err))
	}
	return b
}
