package core

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Hash generates a short MD5 hash of a string.
// It returns the first 12 characters of the hex-encoded MD5 hash.
func Hash(text string) string {
	hasher := md5.New()
	hasher.Write([]byte(text))
	s := hex.EncodeToString(hasher.Sum(nil))
	return s[:12]
}

// CacheKey joins a prefix with the hash of parts, e.g. "api:3f2a9c0d1e4b".
func CacheKey(prefix string, parts ...string) string {
	return prefix + ":" + Hash(strings.Join(parts, "\x00"))
}
