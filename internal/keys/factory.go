package keys

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/compose-network/validator-bootstrap/internal/chain"
	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"golang.org/x/sync/errgroup"
)

// ValidatorFunding is sent from the root signer to every new validator: 5 ETH.
var ValidatorFunding = new(big.Int).Mul(big.NewInt(5), big.NewInt(params.Ether))

type (
	transactor interface {
		Send(ctx context.Context, signer *chain.Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error)
		WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	}

	encryptor interface {
		Encrypt(key *ecdsa.PrivateKey) ([]byte, error)
	}

	// Identity is a freshly generated validator account. Index 0 is the sequencer.
	Identity struct {
		Index     int
		Signer    *chain.Signer
		Encrypted []byte
	}

	// Factory creates and funds validator identities.
	Factory struct {
		tx        transactor
		encryptor encryptor
		logger    *slog.Logger
	}
)

// Address returns the identity's account address.
func (i Identity) Address() common.Address {
	return i.Signer.Address
}

// IsSequencer reports whether the identity is validator 0.
func (i Identity) IsSequencer() bool {
	return i.Index == 0
}

// NewFactory creates a key factory.
func NewFactory(tx transactor, encryptor encryptor) *Factory {
	return &Factory{
		tx:        tx,
		encryptor: encryptor,
		logger:    logger.Named("key_factory"),
	}
}

// Generate creates count identities, each funded from root and encrypted. Funding
// transfers are submitted one after another since root has a single nonce space; their
// receipts are awaited concurrently and the first failure aborts.
func (f *Factory) Generate(ctx context.Context, root *chain.Signer, count int) ([]Identity, error) {
	f.logger.With("count", count).Info("generating validator keys")

	identities := make([]Identity, 0, count)
	hashes := make([]common.Hash, 0, count)
	for i := range count {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key %d: %w", i, err)
		}
		signer := chain.NewKeyedSigner(key, chain.RoleValidator)

		hash, err := f.tx.Send(ctx, root, signer.Address, ValidatorFunding, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fund validator %d: %w", i, err)
		}

		f.logger.
			With("index", i).
			With("address", signer.Address).
			With("tx_hash", hash).
			Debug("validator funding submitted")

		identities = append(identities, Identity{Index: i, Signer: signer})
		hashes = append(hashes, hash)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, hash := range hashes {
		g.Go(func() error {
			if _, err := f.tx.WaitForReceipt(gctx, hash); err != nil {
				return fmt.Errorf("funding of validator %d failed: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range identities {
		blob, err := f.encryptor.Encrypt(identities[i].Signer.PrivateKey())
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt key of validator %d: %w", i, err)
		}
		identities[i].Encrypted = blob
	}

	f.logger.With("count", count).Info("validator keys generated and funded")

	return identities, nil
}
