package kv

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// DiskvStore keeps each key in its own file under basePath. Keys are hex
// encoded so arbitrary user ids are safe as file names; the first two hex
// characters become a shard directory.
type DiskvStore struct {
	d *diskv.Diskv
}

func NewDiskvStore(basePath string, cacheSizeMax uint64) *DiskvStore {
	return &DiskvStore{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      cacheSizeMax,
	})}
}

func keyToPath(s string) *diskv.PathKey {
	if len(s) < 2 {
		return &diskv.PathKey{FileName: s}
	}
	return &diskv.PathKey{Path: []string{s[:2]}, FileName: s}
}

func pathToKey(pk *diskv.PathKey) string {
	return pk.FileName
}

func encodeKey(key string) string {
	return hex.EncodeToString([]byte(key))
}

func decodeKey(name string) (string, error) {
	b, err := hex.DecodeString(name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *DiskvStore) Get(_ context.Context, key string) ([]byte, error) {
	v, err := s.d.Read(encodeKey(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return v, nil
}

func (s *DiskvStore) Set(_ context.Context, key string, value []byte) error {
	if err := s.d.Write(encodeKey(key), value); err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (s *DiskvStore) Delete(_ context.Context, key string) error {
	err := s.d.Erase(encodeKey(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (s *DiskvStore) List(ctx context.Context) (map[string][]byte, error) {
	cancel := make(chan struct{})
	defer close(cancel)

	result := make(map[string][]byte)
	for name := range s.d.Keys(cancel) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, ".") {
			continue
		}
		key, err := decodeKey(name)
		if err != nil {
			continue
		}
		v, err := s.d.Read(name)
		if err != nil {
			return nil, fmt.Errorf("failed to list kv: %w", err)
		}
		result[key] = v
	}
	return result, nil
}

func (s *DiskvStore) Clear(_ context.Context) error {
	if err := s.d.EraseAll(); err != nil {
		return fmt.Errorf("failed to clear kv: %w", err)
	}
	return nil
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*DiskvStore)(nil)
)
