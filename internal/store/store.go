// Package store keeps module sources for the loader. Every store
// implements core.SourceLoader and addresses modules by slash-separated
// names relative to its root.
package store

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/scriptable/jsbridge/internal/core"
)

// Store kinds accepted by Open.
const (
	KindDir    = "dir"
	KindBolt   = "bolt"
	KindSQLite = "sqlite"
)

const (
	maxNameLen          = 255
	maxDecompressedSize = 64 * 1024 * 1024 // 64 MB
)

// Store is a writable module source.
type Store interface {
	core.SourceLoader
	Put(name, source string) error
	Close() error
}

// Open returns the store of the given kind rooted at location: a directory
// for dir stores, a database file otherwise.
func Open(kind, location string) (Store, error) {
	switch kind {
	case "", KindDir:
		return NewDirStore(location)
	case KindBolt:
		return OpenBolt(location)
	case KindSQLite:
		return OpenSQLite(location)
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}

// ValidateName cleans a module name and rejects names that are empty,
// too long, contain null bytes or escape the store root. Leading slashes
// are dropped, so "/lib/a.js" and "lib/a.js" name the same module.
func ValidateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("module name must not be empty")
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("module name too long")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("module name contains null byte")
	}
	if strings.Contains(name, "\\") {
		return "", fmt.Errorf("module name contains backslash")
	}
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("module name %q is not a file", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("module name contains path traversal")
		}
	}
	return clean, nil
}

func compress(source string) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := io.WriteString(w, source); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) (string, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return "", fmt.Errorf("decompress: output exceeds maximum allowed size")
	}
	return string(out), nil
}
