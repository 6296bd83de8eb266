package repository

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var sealedMagic = []byte("BDS1")

const (
	saltSize  = 16
	nonceSize = 24
)

type fileSessionStore struct {
	mu         sync.Mutex
	path       string
	passphrase []byte

	// salt and key are the last derived pair; a write reuses them so only
	// the first read or write of a process pays for scrypt
	salt        []byte
	key         *[32]byte
	derivations int
}

// NewFileSessionStore creates a store backed by a JSON file. When passphrase
// is non-empty the file is sealed with NaCl secretbox under a scrypt key.
func NewFileSessionStore(path, passphrase string) (domainRepo.SessionStore, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &fileSessionStore{path: path, passphrase: []byte(passphrase)}, nil
}

func (s *fileSessionStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (s *fileSessionStore) Set(ctx context.Context, key, value string) error {
	return s.Update(ctx, map[string]string{key: value})
}

func (s *fileSessionStore) Remove(ctx context.Context, keys ...string) error {
	return s.Update(ctx, nil, keys...)
}

// Update applies the removals and then values in one read and one write
func (s *fileSessionStore) Update(_ context.Context, values map[string]string, remove ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if errors.Is(err, domainRepo.ErrCorruptStore) {
		data = map[string]string{}
	} else if err != nil {
		return err
	}
	for _, k := range remove {
		delete(data, k)
	}
	for k, v := range values {
		data[k] = v
	}
	if len(data) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return s.save(data)
}

func (s *fileSessionStore) Close() error {
	return nil
}

func (s *fileSessionStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	if bytes.HasPrefix(raw, sealedMagic) {
		raw, err = s.open(raw[len(sealedMagic):])
		if err != nil {
			return nil, err
		}
	} else if len(s.passphrase) > 0 {
		return nil, fmt.Errorf("%w: expected a sealed file", domainRepo.ErrCorruptStore)
	}

	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", domainRepo.ErrCorruptStore, err)
	}
	return data, nil
}

func (s *fileSessionStore) save(data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if len(s.passphrase) > 0 {
		if raw, err = s.seal(raw); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *fileSessionStore) deriveKey(salt []byte) (*[32]byte, error) {
	if s.key != nil && bytes.Equal(salt, s.salt) {
		return s.key, nil
	}
	k, err := scrypt.Key(s.passphrase, salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	s.derivations++

	var key [32]byte
	copy(key[:], k)
	s.salt = append([]byte(nil), salt...)
	s.key = &key
	return s.key, nil
}

func (s *fileSessionStore) seal(plain []byte) ([]byte, error) {
	salt := s.salt
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, err
		}
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealedMagic)+saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, sealedMagic...)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, key), nil
}

func (s *fileSessionStore) open(sealed []byte) ([]byte, error) {
	if len(s.passphrase) == 0 {
		return nil, fmt.Errorf("%w: file is sealed but no passphrase is configured", domainRepo.ErrCorruptStore)
	}
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: sealed file is truncated", domainRepo.ErrCorruptStore)
	}
	salt := sealed[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])

	key, err := s.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("%w: wrong passphrase or tampered file", domainRepo.ErrCorruptStore)
	}
	return plain, nil
}
