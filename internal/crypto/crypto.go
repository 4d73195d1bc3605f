// Package crypto provides session-scoped asymmetric encryption backed by
// age x25519. Keys are returned as opaque handles, exist only in process
// memory, and are wiped when the owning session closes. No key material is
// ever logged or persisted.
package crypto

import (
	"bytes"
	"encoding/base64"
	"io"
	"sync"

	"filippo.io/age"

	havenErrors "github.com/haven-oss/haven/internal/errors"
)

// PublicKeyHandle is an opaque reference to a session public key.
type PublicKeyHandle struct {
	recipient *age.X25519Recipient
}

// PrivateKeyHandle is an opaque reference to a session private key.
type PrivateKeyHandle struct {
	mu       sync.Mutex
	identity *age.X25519Identity
}

// Wipe discards the private key. Decrypt fails afterwards.
// Idempotent; safe to call multiple times.
func (h *PrivateKeyHandle) Wipe() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.identity = nil
}

// Keypair holds the two handles for one session.
type Keypair struct {
	Public  *PublicKeyHandle
	Private *PrivateKeyHandle
}

// Wipe discards the private half of the keypair.
func (k *Keypair) Wipe() {
	if k == nil {
		return
	}
	k.Private.Wipe()
}

// GenerateSessionKeys produces an asymmetric keypair scoped to one session.
// Callers receive handles, never raw key bytes.
func GenerateSessionKeys() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, havenErrors.Wrap(havenErrors.CodeCryptoFailed, "failed to generate session keypair", err)
	}

	return &Keypair{
		Public:  &PublicKeyHandle{recipient: identity.Recipient()},
		Private: &PrivateKeyHandle{identity: identity},
	}, nil
}

// Encrypt encrypts plaintext to the session public key and returns
// base64-encoded ciphertext suitable for a JSON envelope field.
func Encrypt(plaintext []byte, pub *PublicKeyHandle) (string, error) {
	if pub == nil || pub.recipient == nil {
		return "", havenErrors.New(havenErrors.CodeCryptoFailed, "no public key handle")
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, pub.recipient)
	if err != nil {
		return "", havenErrors.Wrap(havenErrors.CodeCryptoFailed, "failed to create encryptor", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return "", havenErrors.Wrap(havenErrors.CodeCryptoFailed, "failed to write plaintext", err)
	}
	if err := w.Close(); err != nil {
		return "", havenErrors.Wrap(havenErrors.CodeCryptoFailed, "failed to finalize encryption", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decrypt decrypts base64-encoded ciphertext with the session private key.
// Fails with a CRYPTO_FAILED code on malformed input, key mismatch, or a
// wiped handle.
func Decrypt(ciphertext string, priv *PrivateKeyHandle) ([]byte, error) {
	if priv == nil {
		return nil, havenErrors.New(havenErrors.CodeCryptoFailed, "no private key handle")
	}

	priv.mu.Lock()
	identity := priv.identity
	priv.mu.Unlock()
	if identity == nil {
		return nil, havenErrors.New(havenErrors.CodeCryptoFailed, "private key has been wiped")
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, havenErrors.Wrap(havenErrors.CodeCryptoFailed, "malformed ciphertext encoding", err)
	}

	r, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return nil, havenErrors.Wrap(havenErrors.CodeCryptoFailed, "failed to decrypt", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, havenErrors.Wrap(havenErrors.CodeCryptoFailed, "failed to read decrypted plaintext", err)
	}

	return plaintext, nil
}
