// Package encryption seals short server-generated payloads (such as a
// "select all" listing query) so they can round-trip through the browser
// without being readable or forgeable by the client.
//
// Every message is bound to a purpose: a token minted for one purpose never
// decrypts under another. Keys for each purpose are derived from a single
// secret with HKDF-SHA256.
package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest accepted key-derivation secret in bytes.
const MinSecretLength = 32

const kdfSalt = "avo-encryption-kdf"

var (
	// ErrInvalidMessage is returned for malformed, tampered, or wrong-purpose tokens.
	ErrInvalidMessage = errors.New("encryption: invalid message")
	// ErrExpired is returned for tokens used after their expiry.
	ErrExpired = errors.New("encryption: message expired")
)

// envelope is the sealed plaintext layout.
type envelope struct {
	Message   string `json:"m"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// Service encrypts and decrypts purpose-scoped messages.
type Service struct {
	secret []byte
	now    func() time.Time
	rand   io.Reader
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom overrides the nonce source.
func WithRandom(r io.Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.rand = r
		}
	}
}

// New builds a Service from a secret of at least MinSecretLength bytes.
func New(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("encryption secret must be at least %d bytes", MinSecretLength)
	}
	s := &Service{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
		rand:   rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Encrypt seals message for purpose. A zero ttl never expires.
func (s *Service) Encrypt(message string, purpose string, ttl time.Duration) (string, error) {
	if s == nil {
		return "", errors.New("encryption service is not configured")
	}
	aead, err := s.aeadFor(purpose)
	if err != nil {
		return "", err
	}
	env := envelope{Message: message}
	if ttl > 0 {
		env.ExpiresAt = s.now().Add(ttl).Unix()
	}
	plaintext, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, []byte(purpose))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt for the same purpose.
func (s *Service) Decrypt(token string, purpose string) (string, error) {
	if s == nil {
		return "", errors.New("encryption service is not configured")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return "", ErrInvalidMessage
	}
	aead, err := s.aeadFor(purpose)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrInvalidMessage
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(purpose))
	if err != nil {
		return "", ErrInvalidMessage
	}

	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return "", ErrInvalidMessage
	}
	if env.ExpiresAt > 0 && s.now().Unix() > env.ExpiresAt {
		return "", ErrExpired
	}
	return env.Message, nil
}

func (s *Service) aeadFor(purpose string) (cipher.AEAD, error) {
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return nil, errors.New("encryption purpose is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, s.secret, []byte(kdfSalt), []byte(purpose))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive purpose key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("build cipher: %w", err)
	}
	return aead, nil
}
