package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

const (
	// fileMagic is prepended to credential files for identification.
	fileMagic = "RBSESS1"

	// Default Argon2 parameters (RFC 9106 recommendations)
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // 64 MB
	defaultArgon2Threads = 4
	argon2KeyLen         = 32 // AES-256

	saltLength = 16
)

// ErrNoCredential is returned by Load when nothing is stored.
var ErrNoCredential = errors.New("no stored credential")

// KDFParams tunes the Argon2id key derivation.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFParams returns the RFC 9106 second recommended option.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:    defaultArgon2Time,
		Memory:  defaultArgon2Memory,
		Threads: defaultArgon2Threads,
	}
}

// FileStore persists the credential encrypted with AES-256-GCM under a key
// derived from a passphrase.
//
// File format: magic || salt || nonce || ciphertext (with auth tag).
type FileStore struct {
	path       string
	passphrase string
	params     KDFParams
}

// NewFileStore creates a store writing to path. Zero params use the
// defaults.
func NewFileStore(path, passphrase string, params KDFParams) *FileStore {
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		params = DefaultKDFParams()
	}
	return &FileStore{path: path, passphrase: passphrase, params: params}
}

// Path returns the credential file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey([]byte(f.passphrase), salt, f.params.Time, f.params.Memory, f.params.Threads, argon2KeyLen)
}

// Save encrypts and writes the token.
func (f *FileStore) Save(token string) error {
	if f.passphrase == "" {
		return fmt.Errorf("passphrase required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(f.deriveKey(salt))
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(token), []byte(fileMagic))

	out := make([]byte, 0, len(fileMagic)+len(salt)+len(nonce)+len(ciphertext))
	out = append(out, fileMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(f.path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads and decrypts the token. It returns ErrNoCredential when the
// file does not exist.
func (f *FileStore) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	if len(data) < len(fileMagic) || string(data[:len(fileMagic)]) != fileMagic {
		return "", fmt.Errorf("not a session file")
	}
	data = data[len(fileMagic):]

	// GCM nonce is 12 bytes, auth tag 16 bytes
	if len(data) < saltLength+12+16 {
		return "", fmt.Errorf("session file too short")
	}
	salt := data[:saltLength]
	data = data[saltLength:]

	gcm, err := newGCM(f.deriveKey(salt))
	if err != nil {
		return "", err
	}

	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(fileMagic))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt session (wrong passphrase?): %w", err)
	}
	return string(plaintext), nil
}

// Clear removes the stored credential. Clearing an empty store is not an
// error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
