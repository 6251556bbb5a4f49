package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the passphrase file of the encrypted store
const EnvPassphrase = "PTSCRAPER_PASSPHRASE"

// passphraseFile lives next to the vault, so the state directory alone is
// enough to open it
const passphraseFile = ".passphrase"

const (
	vaultVersion  = 2
	saltSize      = 32
	keySize       = 32
	kdfIterations = 100000
)

// ErrVaultLocked is returned when saved sessions cannot be decrypted with
// the current passphrase
var ErrVaultLocked = errors.New("saved sessions cannot be decrypted; check " + EnvPassphrase)

// vaultFile is the on-disk layout. Account names are kept in clear so a
// single session can be removed without the passphrase; every entry is
// sealed with its account name as additional data.
type vaultFile struct {
	Version    int                    `json:"version"`
	Salt       string                 `json:"salt"`
	Iterations int                    `json:"iterations"`
	Sessions   map[string]sealedEntry `json:"sessions"`
}

type sealedEntry struct {
	Sealed  string    `json:"sealed"` // base64 of nonce followed by ciphertext
	SavedAt time.Time `json:"saved_at"`
}

// EncryptedFileStore keeps Patreon sessions in an AES-GCM sealed file under
// the state directory
type EncryptedFileStore struct {
	path       string
	passphrase string

	mu   sync.Mutex
	salt []byte
	key  []byte
}

// NewEncryptedFileStore opens the vault at path. The passphrase comes from
// PTSCRAPER_PASSPHRASE, or from a generated .passphrase file beside the vault.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	passphrase, err := vaultPassphrase(dir)
	if err != nil {
		return nil, err
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store seals the account's cookies. Accounts without a session cookie are
// refused.
func (e *EncryptedFileStore) Store(account *Account) error {
	if err := checkStorable(account); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return err
	}
	key, err := e.keyFor(vault)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	sealed, err := seal(key, plaintext, account.Name)
	if err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}

	savedAt := account.LastModified
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	vault.Sessions[account.Name] = sealedEntry{Sealed: sealed, SavedAt: savedAt}
	return e.write(vault)
}

// Retrieve unseals the session saved under name
func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return nil, err
	}
	entry, ok := vault.Sessions[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return e.unsealAccount(vault, name, entry)
}

// List unseals every saved session, ordered by name
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(vault.Sessions))
	for name := range vault.Sessions {
		names = append(names, name)
	}
	sort.Strings(names)

	accounts := make([]*Account, 0, len(names))
	for _, name := range names {
		account, err := e.unsealAccount(vault, name, vault.Sessions[name])
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// Delete removes the session saved under name. The passphrase is not
// needed. The file is removed with its last session.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vault, err := e.read()
	if err != nil {
		return err
	}
	if _, ok := vault.Sessions[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(vault.Sessions, name)

	if len(vault.Sessions) == 0 {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return e.write(vault)
}

// Exists reports whether a usable session is saved under name
func (e *EncryptedFileStore) Exists(name string) bool {
	account, err := e.Retrieve(name)
	return err == nil && account != nil
}

func checkStorable(account *Account) error {
	switch {
	case account == nil || strings.TrimSpace(account.Name) == "":
		return ErrInvalidCredentials
	case account.Cookies[SessionCookie] == "":
		return fmt.Errorf("%w: no %s cookie", ErrInvalidCredentials, SessionCookie)
	}
	return nil
}

func (e *EncryptedFileStore) unsealAccount(vault *vaultFile, name string, entry sealedEntry) (*Account, error) {
	key, err := e.keyFor(vault)
	if err != nil {
		return nil, err
	}
	plaintext, err := unseal(key, entry.Sealed, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVaultLocked, err)
	}

	var account Account
	if err := json.Unmarshal(plaintext, &account); err != nil {
		return nil, fmt.Errorf("failed to decode session %q: %w", name, err)
	}
	account.Name = name
	if account.Cookies[SessionCookie] == "" {
		return nil, fmt.Errorf("%w: saved session %q has no %s cookie", ErrInvalidCredentials, name, SessionCookie)
	}
	return &account, nil
}

// read loads the vault, returning an empty one when the file is missing
func (e *EncryptedFileStore) read() (*vaultFile, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return &vaultFile{Version: vaultVersion, Sessions: make(map[string]sealedEntry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var vault vaultFile
	if err := json.Unmarshal(content, &vault); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", e.path, err)
	}
	if vault.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported session file version %d; remove %s and save the session again", vault.Version, e.path)
	}
	if vault.Sessions == nil {
		vault.Sessions = make(map[string]sealedEntry)
	}
	return &vault, nil
}

// write replaces the vault file atomically
func (e *EncryptedFileStore) write(vault *vaultFile) error {
	content, err := json.MarshalIndent(vault, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// keyFor returns the key for the vault's salt, creating a salt for a new
// vault. The derived key is cached until the salt changes.
func (e *EncryptedFileStore) keyFor(vault *vaultFile) ([]byte, error) {
	if vault.Salt == "" {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		vault.Salt = base64.StdEncoding.EncodeToString(salt)
		vault.Iterations = kdfIterations
	}

	salt, err := base64.StdEncoding.DecodeString(vault.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt in session file: %w", err)
	}
	if e.key != nil && bytes.Equal(salt, e.salt) {
		return e.key, nil
	}

	iterations := vault.Iterations
	if iterations <= 0 {
		iterations = kdfIterations
	}
	e.salt = salt
	e.key = pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
	return e.key, nil
}

// vaultPassphrase returns the passphrase from the environment, or from the
// passphrase file in dir, generating the file on first use
func vaultPassphrase(dir string) (string, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return pass, nil
	}

	path := filepath.Join(dir, passphraseFile)
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if pass := strings.TrimSpace(string(content)); pass != "" {
			return pass, nil
		}
	case !os.IsNotExist(err):
		return "", fmt.Errorf("failed to read passphrase file: %w", err)
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.RawURLEncoding.EncodeToString(b)
	if err := os.WriteFile(path, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext bound to name
func seal(key, plaintext []byte, name string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, []byte(name))), nil
}

// unseal reverses seal; it fails for a wrong key or a different name
func unseal(key []byte, sealed, name string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, errors.New("sealed session too short")
	}
	n := gcm.NonceSize()
	return gcm.Open(nil, data[:n], data[n:], []byte(name))
}
