// Package backup exports the local snapshot database as a single
// passphrase-encrypted file, and restores from one. The file layout is
// [16-byte salt][12-byte nonce][AES-256-GCM ciphertext], with the key
// derived from the passphrase via Argon2id.
package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// deriveKey derives the AES-256 key from a passphrase and salt.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

// Checkpointer flushes any write-ahead state so the database file on disk
// is complete before it is read.
type Checkpointer interface {
	Checkpoint() error
}

// Export writes an encrypted copy of the snapshot database at cachePath to
// dstPath. The database's WAL is checkpointed first so the file on disk is
// complete.
func Export(cache Checkpointer, cachePath, dstPath, passphrase string) error {
	if err := cache.Checkpoint(); err != nil {
		return fmt.Errorf("checkpoint snapshot db: %w", err)
	}

	plaintext, err := os.ReadFile(cachePath)
	if err != nil {
		return fmt.Errorf("read snapshot db: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	if err := os.WriteFile(dstPath, out, 0600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Import decrypts an exported file back into a snapshot database at
// dstPath. A wrong passphrase fails authentication and leaves dstPath
// untouched.
func Import(srcPath, dstPath, passphrase string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	if len(data) < saltSize+nonceSize {
		return fmt.Errorf("export file too small")
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	if err := os.WriteFile(dstPath, plaintext, 0600); err != nil {
		return fmt.Errorf("write snapshot db: %w", err)
	}
	return nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
