// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: substack-sid (the substack.sid session cookie of a
// logged-in subscriber).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/sub2md/internal/logging"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

// KeySubstackSID names the file holding the substack.sid cookie value.
const KeySubstackSID = "substack-sid"

// Store maps secret names to their values.
type Store map[string]string

// Get returns the named secret, or "" when it is not set.
func (s Store) Get(key string) string {
	return s[key]
}

// SessionCookie returns the substack.sid cookie value, or "".
func (s Store) SessionCookie() string {
	return s.Get(KeySubstackSID)
}

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty Store. Unreadable files are logged and skipped.
func Load(dir string, log logging.Logger) (Store, error) {
	if log == nil {
		log = logging.Nop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Store)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
