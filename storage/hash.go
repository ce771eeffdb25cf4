package storage

import "hash/maphash"

// keyHasher computes a deterministic hash for any comparable key. The seed
// is fixed once at construction so that re-hashing a key during a bucket
// split yields exactly the bits that were used when the key was first
// inserted — per spec, the hash function itself must not change underneath
// the table.
type keyHasher[K comparable] struct {
	seed maphash.Seed
}

// newKeyHasher creates a hasher with a fresh random seed.
func newKeyHasher[K comparable]() keyHasher[K] {
	return keyHasher[K]{seed: maphash.MakeSeed()}
}

// hash returns a 64-bit hash of key, stable for the lifetime of the hasher.
func (h keyHasher[K]) hash(key K) uint64 {
	return maphash.Comparable(h.seed, key)
}
