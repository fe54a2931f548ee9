package keys

import (
	"crypto/ecdsa"

	"github.com/compose-network/validator-bootstrap/internal/errs"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Passphrase protects every generated keystore file. Demo only.
const Passphrase = "pass"

// Encryptor turns private keys into keystore V3 JSON blobs.
type Encryptor struct {
	passphrase string
	scryptN    int
	scryptP    int
}

// NewEncryptor creates an encryptor using the standard scrypt parameters, or the light ones
// when light is set.
func NewEncryptor(passphrase string, light bool) *Encryptor {
	if light {
		return &Encryptor{passphrase: passphrase, scryptN: keystore.LightScryptN, scryptP: keystore.LightScryptP}
	}
	return &Encryptor{passphrase: passphrase, scryptN: keystore.StandardScryptN, scryptP: keystore.StandardScryptP}
}

// Encrypt returns the keystore JSON for key.
func (e *Encryptor) Encrypt(key *ecdsa.PrivateKey) ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, &errs.KeystoreError{Err: err}
	}

	blob, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, e.passphrase, e.scryptN, e.scryptP)
	if err != nil {
		return nil, &errs.KeystoreError{Err: err}
	}

	return blob, nil
}
