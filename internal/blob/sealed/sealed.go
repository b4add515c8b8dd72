// Package sealed wraps a blob.Store with authenticated encryption at rest.
//
// Values are encrypted with AES-256-GCM and signed with HMAC-SHA512/256
// through cryptopasta. The stored layout is the HMAC followed by the
// ciphertext.
package sealed

import (
	"context"
	"errors"
	"fmt"

	"github.com/gtank/cryptopasta"

	"masarif/internal/blob"
)

const (
	// KeySize is the length both keys are truncated to.
	KeySize = 32
	macSize = 32
)

var ErrKeyTooShort = errors.New("sealing key too short")

type Store struct {
	inner blob.Store
	enc   *[KeySize]byte
	sig   *[KeySize]byte
}

// New wraps inner. Both keys need at least KeySize bytes; extra bytes are
// ignored.
func New(inner blob.Store, encKey, sigKey string) (*Store, error) {
	enc, err := toKey(encKey)
	if err != nil {
		return nil, err
	}
	sig, err := toKey(sigKey)
	if err != nil {
		return nil, err
	}
	return &Store{inner: inner, enc: enc, sig: sig}, nil
}

func toKey(s string) (*[KeySize]byte, error) {
	if len(s) < KeySize {
		return nil, fmt.Errorf("%w: want at least %d bytes", ErrKeyTooShort, KeySize)
	}
	k := &[KeySize]byte{}
	copy(k[:], s)
	return k, nil
}

// Get returns the decrypted value. A value failing authentication or
// decryption yields an error wrapping blob.ErrUnreadable.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(raw) < macSize {
		return nil, true, fmt.Errorf("%w: sealed value too short", blob.ErrUnreadable)
	}
	mac, ciphertext := raw[:macSize], raw[macSize:]
	if !cryptopasta.CheckHMAC(ciphertext, mac, s.sig) {
		return nil, true, fmt.Errorf("%w: signature mismatch", blob.ErrUnreadable)
	}
	plain, err := cryptopasta.Decrypt(ciphertext, s.enc)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", blob.ErrUnreadable, err)
	}
	return plain, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	ciphertext, err := cryptopasta.Encrypt(value, s.enc)
	if err != nil {
		return fmt.Errorf("seal blob %q: %w", key, err)
	}
	mac := cryptopasta.GenerateHMAC(ciphertext, s.sig)
	out := make([]byte, 0, len(mac)+len(ciphertext))
	out = append(out, mac...)
	out = append(out, ciphertext...)
	return s.inner.Set(ctx, key, out)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
