package triggergate

import "hash/maphash"

// fingerprintSeed is shared across calls so equal strings hash equal within
// one process run; maphash intentionally randomizes the seed per process,
// which is fine here since fingerprints are only ever compared within a
// single running Gate, never persisted or compared across restarts.
var fingerprintSeed = maphash.MakeSeed()

// Fingerprint computes a fast, stable (within-process) hash of buffer
// content, used to detect a no-op edit (spec §4.2 step 3: "a fast stable
// hash is sufficient").
func Fingerprint(content string) uint64 {
	return maphash.String(fingerprintSeed, content)
}
