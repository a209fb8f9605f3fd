package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Verifier checks a detached signature over canonical bytes against an address.
type Verifier interface {
	Verify(address string, payload, signature []byte) bool
}

// Secp256k1Verifier treats addresses as 0x-hex compressed secp256k1 public keys
// and signatures as [R || S || V] over Keccak256(payload).
type Secp256k1Verifier struct{}

func (Secp256k1Verifier) Verify(address string, payload, signature []byte) bool {
	if len(signature) < crypto.SignatureLength-1 {
		return false
	}
	pub, err := hexutil.Decode(address)
	if err != nil || len(pub) != 33 {
		return false
	}
	return crypto.VerifySignature(pub, crypto.Keccak256(payload), signature[:crypto.SignatureLength-1])
}

// DefaultVerifier is used when a component is not given its own.
var DefaultVerifier Verifier = Secp256k1Verifier{}
