package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"bfs-chain/types"
)

// Wallet holds a secp256k1 key and the next account nonce it will use.
type Wallet struct {
	key   *ecdsa.PrivateKey
	nonce uint64
}

func New() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Wallet{key: key}, nil
}

// FromHex restores a wallet from a hex encoded private key.
func FromHex(hexKey string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Wallet{key: key}, nil
}

// LoadFile restores a wallet from a file holding a hex encoded private key.
func LoadFile(path string) (*Wallet, error) {
	key, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("load key %s: %w", path, err)
	}
	return &Wallet{key: key}, nil
}

// SaveFile writes the private key as hex with owner-only permissions.
func (w *Wallet) SaveFile(path string) error {
	return crypto.SaveECDSA(path, w.key)
}

func (w *Wallet) PrivateKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSA(w.key))
}

// Address is the 0x-hex compressed public key.
func (w *Wallet) Address() string {
	return hexutil.Encode(crypto.CompressPubkey(&w.key.PublicKey))
}

func (w *Wallet) Nonce() uint64 {
	return w.nonce
}

func (w *Wallet) SetNonce(nonce uint64) {
	w.nonce = nonce
}

// Sign attaches a signature over the transaction's canonical bytes.
func (w *Wallet) Sign(tx *types.Transaction) error {
	sig, err := crypto.Sign(crypto.Keccak256(tx.CanonicalBytes()), w.key)
	if err != nil {
		return fmt.Errorf("sign %s: %w", tx.Hash().Hex(), err)
	}
	tx.Signature = sig
	tx.Signed = true
	return nil
}

// Send builds and signs a transfer using the wallet's next nonce.
func (w *Wallet) Send(to string, value, fee *uint256.Int) (*types.Transaction, error) {
	tx := types.NewTransaction(w.Address(), to, value, fee, w.nonce, time.Now().Unix())
	if err := w.Sign(tx); err != nil {
		return nil, err
	}
	w.nonce++
	return tx, nil
}

// SignRandomTxs sends n transfers to the same receiver with values in [1, 5].
func (w *Wallet) SignRandomTxs(to string, n int) ([]*types.Transaction, error) {
	txs := make([]*types.Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx, err := w.Send(to, uint256.NewInt(rand.Uint64N(5)+1), new(uint256.Int))
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
