package wallet

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/holiman/uint256"

	"bfs-chain/types"
)

func TestSend(t *testing.T) {
	a, err := New()
	assert.Equal(t, err, nil)
	b, err := New()
	assert.Equal(t, err, nil)

	assert.Equal(t, strings.HasPrefix(a.Address(), "0x"), true)
	assert.Equal(t, len(a.Address()), 2+2*33)

	tx, err := a.Send(b.Address(), uint256.NewInt(3), uint256.NewInt(1))
	assert.Equal(t, err, nil)
	assert.Equal(t, tx.Nonce, uint64(0))
	assert.Equal(t, a.Nonce(), uint64(1))
	assert.Equal(t, tx.IsCorrectlySigned(types.DefaultVerifier), true)

	tx.From = b.Address()
	assert.Equal(t, tx.IsCorrectlySigned(types.DefaultVerifier), false)
}

func TestSignRandomTxs(t *testing.T) {
	a, _ := New()
	b, _ := New()
	a.SetNonce(7)

	txs, err := a.SignRandomTxs(b.Address(), 4)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(txs), 4)
	for i, tx := range txs {
		assert.Equal(t, tx.Nonce, uint64(7+i))
		assert.Equal(t, tx.Value.Uint64() >= 1 && tx.Value.Uint64() <= 5, true)
		assert.Equal(t, tx.Fee.IsZero(), true)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	w, _ := New()

	restored, err := FromHex(w.PrivateKeyHex())
	assert.Equal(t, err, nil)
	assert.Equal(t, restored.Address(), w.Address())

	path := filepath.Join(t.TempDir(), "key")
	assert.Equal(t, w.SaveFile(path), nil)
	loaded, err := LoadFile(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, loaded.Address(), w.Address())

	_, err = FromHex("zz")
	assert.NotEqual(t, err, nil)
	_, err = LoadFile(filepath.Join(t.TempDir(), "missing"))
	assert.NotEqual(t, err, nil)
}
