package partition

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

const (
	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the salt length used in key derivation.
	SaltLength = 16

	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// sealer encrypts frame payloads under a passphrase. One salt is drawn per
// save; each file gets its own HKDF subkey of the salted master key.
type sealer struct {
	passphrase []byte

	mu      sync.Mutex
	masters map[string][]byte
}

func newSealer(passphrase []byte) (*sealer, error) {
	if len(passphrase) == 0 {
		return nil, nil
	}
	if len(passphrase) < MinPassphraseLength {
		return nil, domain.ErrConfiguration.WithDetailsf("passphrase shorter than %d characters", MinPassphraseLength)
	}
	p := make([]byte, len(passphrase))
	copy(p, passphrase)
	return &sealer{passphrase: p, masters: make(map[string][]byte)}, nil
}

func newSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, domain.ErrInternal.WithDetails("generate salt").WithCause(err)
	}
	return salt, nil
}

// master returns the Argon2id key for salt, deriving it at most once.
func (s *sealer) master(salt []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := hex.EncodeToString(salt)
	if key, ok := s.masters[k]; ok {
		return key
	}
	key := argon2.IDKey(s.passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	s.masters[k] = key
	return key
}

func (s *sealer) subkey(salt []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, s.master(salt), nil, []byte("worldsave/"+info))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, domain.ErrInternal.WithDetails("derive subkey").WithCause(err)
	}
	return key, nil
}

// seal returns nonce || ciphertext.
func (s *sealer) seal(salt []byte, info string, plain, aad []byte) ([]byte, error) {
	key, err := s.subkey(salt, info)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	out := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, domain.ErrInternal.WithDetails("generate nonce").WithCause(err)
	}
	return aead.Seal(out, out, plain, aad), nil
}

func (s *sealer) open(salt []byte, info string, sealed, aad []byte) ([]byte, error) {
	key, err := s.subkey(salt, info)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, domain.ErrCorruptData.WithDetails("sealed payload too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, domain.ErrCorruptData.WithDetails("decryption failed, wrong passphrase or corrupted data")
	}
	return plain, nil
}
