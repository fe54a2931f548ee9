package chain

import (
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role tells what an account is used for during the bootstrap.
type Role string

const (
	RoleRoot      Role = "root"
	RoleValidator Role = "validator"
	RoleClient    Role = "client"
)

// Signer is an account able to submit transactions. Keyed signers sign locally and own their
// nonce; node-managed signers (nil key) are unlocked accounts of the node, which signs with
// eth_sendTransaction and assigns nonces itself.
type Signer struct {
	Address common.Address
	Role    Role

	key *ecdsa.PrivateKey

	mu         sync.Mutex
	nonce      uint64
	nonceKnown bool
}

// NewKeyedSigner creates a signer backed by a private key.
func NewKeyedSigner(key *ecdsa.PrivateKey, role Role) *Signer {
	return &Signer{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Role:    role,
		key:     key,
	}
}

// NewNodeSigner creates a signer for an account unlocked on the node.
func NewNodeSigner(address common.Address, role Role) *Signer {
	return &Signer{
		Address: address,
		Role:    role,
	}
}

// PrivateKey returns the signing key, or nil for node-managed signers.
func (s *Signer) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

// NodeManaged reports whether the node signs for this account.
func (s *Signer) NodeManaged() bool {
	return s.key == nil
}
