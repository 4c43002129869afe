package linkcodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultSalt is the fixed, public key-derivation salt.
	DefaultSalt = "segredex-salt"
	// DefaultIterations is the PBKDF2 iteration count.
	DefaultIterations = 100000

	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
)

var encoding = base64.RawURLEncoding

// Codec encrypts receivers under keys derived from giver names.
// The zero value is not usable; use New or Default.
type Codec struct {
	Salt       []byte
	Iterations int

	// Rand supplies nonces. Nil means crypto/rand.
	Rand io.Reader
}

var defaultCodec = New()

// New returns a Codec with the fixed production parameters.
func New() *Codec {
	return &Codec{
		Salt:       []byte(DefaultSalt),
		Iterations: DefaultIterations,
	}
}

// Default returns the shared production Codec.
func Default() *Codec { return defaultCodec }

// Encode encrypts receiver for giver with the default Codec.
func Encode(receiver, giver string) (string, error) {
	return defaultCodec.Encode(receiver, giver)
}

// Decode recovers the receiver with the default Codec.
func Decode(token, giver string) (string, error) {
	return defaultCodec.Decode(token, giver)
}

// DeriveKey stretches a giver name into a 256-bit AES key.
func (c *Codec) DeriveKey(giver string) []byte {
	return pbkdf2.Key([]byte(giver), c.Salt, c.Iterations, KeySize, sha256.New)
}

// Encode returns the token carrying receiver, readable only with giver.
// Every call uses a fresh random nonce, so encoding the same pair twice
// yields different tokens.
func (c *Codec) Encode(receiver, giver string) (string, error) {
	gcm, err := c.newGCM(giver)
	if err != nil {
		return "", err
	}

	out := make([]byte, NonceSize, NonceSize+len(receiver)+gcm.Overhead())
	if _, err := io.ReadFull(c.random(), out); err != nil {
		return "", fmt.Errorf("linkcodec: generate nonce: %w", err)
	}
	out = gcm.Seal(out, out[:NonceSize], []byte(receiver), nil)
	return encoding.EncodeToString(out), nil
}

// Decode returns the receiver sealed in token when giver is the name it was
// issued for. Any failure yields ErrInvalidOrTamperedLink. The key is derived
// before the token is inspected so a malformed token costs the same as a
// wrong name.
func (c *Codec) Decode(token, giver string) (string, error) {
	gcm, err := c.newGCM(giver)
	if err != nil {
		return "", err
	}

	raw, err := encoding.DecodeString(token)
	if err != nil || len(raw) < NonceSize+gcm.Overhead() {
		return "", ErrInvalidOrTamperedLink
	}

	plain, err := gcm.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return "", ErrInvalidOrTamperedLink
	}
	return string(plain), nil
}

func (c *Codec) newGCM(giver string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.DeriveKey(giver))
	if err != nil {
		return nil, fmt.Errorf("linkcodec: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("linkcodec: new gcm: %w", err)
	}
	return gcm, nil
}

func (c *Codec) random() io.Reader {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}
