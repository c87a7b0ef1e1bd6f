package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store keeps account seeds on the local filesystem, one hex-encoded
// file per account name. It backs the CLI; long-running services load
// seeds from their own config instead.
type Store struct {
	Dir string
}

// DefaultDir returns the per-user key directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".weft", "keys"), nil
}

// OpenStore opens (and creates if needed) a key store at dir. An
// empty dir selects DefaultDir.
func OpenStore(dir string) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.Dir, name+".key")
}

// Save writes the seed under name and returns the account address.
// Existing names are not overwritten unless overwrite is set.
func (s *Store) Save(name string, seed []byte, overwrite bool) (string, error) {
	if err := CheckLabel(name); err != nil {
		return "", err
	}
	acct, err := AccountFromSeed(seed)
	if err != nil {
		return "", err
	}

	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(s.pathFor(name), flags, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return acct.ID(), nil
}

// Load reads the named seed and rebuilds its account.
func (s *Store) Load(name string) (*Account, error) {
	if err := CheckLabel(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.pathFor(name))
	if err != nil {
		return nil, err
	}
	seed, err := ParseSeedHex(string(data))
	if err != nil {
		return nil, err
	}
	return AccountFromSeed(seed)
}

// List returns the stored account names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := strings.CutSuffix(e.Name(), ".key"); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ParseSeedHex decodes a hex seed string, tolerating whitespace and a
// 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: expected seed length of %d bytes, got %d", ErrBadKey, ed25519.SeedSize, len(data))
	}
	return data, nil
}
