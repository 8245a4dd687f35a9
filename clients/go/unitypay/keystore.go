package unitypay

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/crypto"
)

const keyFileName = "wallet.json"

// scrypt parameters for passphrase-protected keys.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = chacha20poly1305.KeySize
	saltSize     = 16
)

// ErrPassphrase is returned when an encrypted key can't be opened.
var ErrPassphrase = errors.New("wrong passphrase or corrupted key file")

// keyFile is the on-disk wallet. Exactly one of Seed and Sealed is set.
type keyFile struct {
	Address   string      `json:"address"`
	PublicKey string      `json:"public_key"`
	Seed      string      `json:"seed,omitempty"`
	Sealed    *sealedSeed `json:"sealed,omitempty"`
}

type sealedSeed struct {
	KDF        string `json:"kdf"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptKeyLen)
}

func seal(seed []byte, passphrase string) (*sealedSeed, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &sealedSeed{
		KDF:        "scrypt",
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, seed, nil)),
	}, nil
}

func (s *sealedSeed) open(passphrase string) ([]byte, error) {
	if s.KDF != "scrypt" {
		return nil, fmt.Errorf("unsupported kdf %q", s.KDF)
	}
	salt, err := base64.StdEncoding.DecodeString(s.Salt)
	if err != nil {
		return nil, ErrPassphrase
	}
	nonce, err := base64.StdEncoding.DecodeString(s.Nonce)
	if err != nil || len(nonce) != chacha20poly1305.NonceSize {
		return nil, ErrPassphrase
	}
	ciphertext, err := base64.StdEncoding.DecodeString(s.Ciphertext)
	if err != nil {
		return nil, ErrPassphrase
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	seed, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrPassphrase
	}
	return seed, nil
}

// GenerateKey creates a new wallet keypair in memory.
func (c *Client) GenerateKey() error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	c.PublicKey = pub
	c.PrivateKey = priv
	return nil
}

// HasKey reports whether a wallet is loaded.
func (c *Client) HasKey() bool {
	return c.PrivateKey != nil
}

// Address is the ledger address of the loaded wallet.
func (c *Client) Address() string {
	if c.PublicKey == nil {
		return ""
	}
	return crypto.AddressFromPublicKey(c.PublicKey)
}

// KeyPath is where the wallet is stored.
func (c *Client) KeyPath() string {
	return filepath.Join(c.ConfigDir, keyFileName)
}

// SaveKey writes the wallet to disk. A non-empty passphrase encrypts the seed.
func (c *Client) SaveKey(passphrase string) error {
	if c.PrivateKey == nil {
		return errors.New("no key to save")
	}
	if err := os.MkdirAll(c.ConfigDir, 0o700); err != nil {
		return err
	}

	kf := keyFile{
		Address:   c.Address(),
		PublicKey: base64.StdEncoding.EncodeToString(c.PublicKey),
	}
	seed := c.PrivateKey.Seed()
	if passphrase == "" {
		kf.Seed = base64.StdEncoding.EncodeToString(seed)
	} else {
		sealed, err := seal(seed, passphrase)
		if err != nil {
			return err
		}
		kf.Sealed = sealed
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.KeyPath(), data, 0o600)
}

// LoadKey reads the wallet from disk. passphrase is ignored for
// unencrypted keys.
func (c *Client) LoadKey(passphrase string) error {
	data, err := os.ReadFile(c.KeyPath())
	if err != nil {
		return err
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return fmt.Errorf("parse %s: %w", c.KeyPath(), err)
	}

	var seed []byte
	switch {
	case kf.Sealed != nil:
		seed, err = kf.Sealed.open(passphrase)
	case kf.Seed != "":
		seed, err = base64.StdEncoding.DecodeString(kf.Seed)
	default:
		err = errors.New("key file has no seed")
	}
	if err != nil {
		return err
	}
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("invalid seed length %d", len(seed))
	}

	c.PrivateKey = ed25519.NewKeyFromSeed(seed)
	c.PublicKey = c.PrivateKey.Public().(ed25519.PublicKey)
	return nil
}
