package gpg

import (
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// SignatureExt is appended to an artifact path to name its signature
const SignatureExt = ".asc"

// Signer produces armored detached signatures with a single private key
type Signer struct {
	entity *openpgp.Entity
}

// NewSigner wraps an entity whose private key is already decrypted
func NewSigner(entity *openpgp.Entity) (*Signer, error) {
	if entity == nil || entity.PrivateKey == nil {
		return nil, fmt.Errorf("signing key has no private key")
	}
	if entity.PrivateKey.Encrypted {
		return nil, fmt.Errorf("signing key is still encrypted")
	}
	return &Signer{entity: entity}, nil
}

// LoadSigner reads the first private key from keyPath, decrypting it with
// passphrase when it is protected.
func LoadSigner(keyPath string, passphrase []byte) (*Signer, error) {
	keys, err := readKeyRing(keyPath)
	if err != nil {
		return nil, err
	}

	entity := keys[0]
	if entity.PrivateKey == nil {
		return nil, fmt.Errorf("key file %s does not contain a private key", keyPath)
	}
	if entity.PrivateKey.Encrypted {
		if len(passphrase) == 0 {
			return nil, fmt.Errorf("private key is encrypted and no passphrase was given")
		}
		if err := entity.PrivateKey.Decrypt(passphrase); err != nil {
			return nil, fmt.Errorf("failed to decrypt private key: %w", err)
		}
	}
	for _, sub := range entity.Subkeys {
		if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
			if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
				return nil, fmt.Errorf("failed to decrypt subkey: %w", err)
			}
		}
	}

	return NewSigner(entity)
}

// SignFile writes path+".asc" holding an armored detached signature of path
func (s *Signer) SignFile(path string) (string, error) {
	//nolint:gosec // G304: path is an artifact this process just wrote
	data, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	//nolint:errcheck // Defer close
	defer data.Close()

	sigPath := path + SignatureExt
	//nolint:gosec // G304: signature lives next to the artifact
	out, err := os.OpenFile(sigPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create signature file: %w", err)
	}

	if err := openpgp.ArmoredDetachSign(out, s.entity, data, nil); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("failed to sign %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write signature file: %w", err)
	}

	return sigPath, nil
}

// Fingerprint returns the uppercase hex fingerprint of the signing key
func (s *Signer) Fingerprint() string {
	return fmt.Sprintf("%X", s.entity.PrimaryKey.Fingerprint)
}
