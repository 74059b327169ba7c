package cache

import (
	"encoding/hex"

	"github.com/minio/highwayhash"
)

// fingerprintKey is the fixed HighwayHash key. Fingerprints are cache
// identities, not security tokens, so a compiled-in key is fine — what
// matters is that every process computes the same fingerprint for the same
// bytes.
var fingerprintKey = []byte("contactimport.file.fingerprint!!")

// Fingerprint returns a stable 64-bit content fingerprint of raw file bytes,
// hex-encoded. Two uploads of identical bytes share parse and analysis
// results through the cache regardless of file name.
func Fingerprint(data []byte) string {
	sum := highwayhash.Sum64(data, fingerprintKey)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (8 * (7 - i)))
	}
	return hex.EncodeToString(buf[:])
}

// StageKey builds the cache key for one pipeline stage's result.
// Key format: "fingerprint|options|stage".
func StageKey(fingerprint, optionsKey, stage string) string {
	return fingerprint + "|" + optionsKey + "|" + stage
}
