// Package blob stores file content by content address.
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// ContentAddress returns the sha256 hex digest of content followed by the
// lower-cased extension of name, e.g. "9f86d0...08.pdf".
func ContentAddress(content []byte, name string) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]) + strings.ToLower(filepath.Ext(name))
}

// validAddress rejects anything that is not a digest plus an optional
// extension, so an address can never escape the store's namespace.
func validAddress(address string) bool {
	digest, ext, _ := strings.Cut(address, ".")
	if len(digest) != sha256.Size*2 {
		return false
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return false
	}
	return !strings.ContainsAny(ext, `/\.`)
}
