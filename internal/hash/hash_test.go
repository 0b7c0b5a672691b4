package hash

import "testing"

const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func TestSHA256Hasher_HashBytes(t *testing.T) {
	hasher := NewSHA256Hasher()

	if got := hasher.HashBytes(nil); got != emptySHA256 {
		t.Errorf("HashBytes(nil) = %s, want %s", got, emptySHA256)
	}
	if hasher.HashBytes([]byte("version: 1.0.0")) == hasher.HashBytes([]byte("version: 1.0.1")) {
		t.Error("different content produced the same hash")
	}
	if hasher.HashBytes([]byte("same")) != hasher.HashBytes([]byte("same")) {
		t.Error("hash is not deterministic")
	}
}

func TestFakeHasher(t *testing.T) {
	hasher := NewFakeHasher()

	if got := hasher.HashBytes([]byte("unknown")); got != "fakehash" {
		t.Errorf("default HashBytes = %s", got)
	}

	hasher.SetHash("content", "h-content")

	if got := hasher.HashBytes([]byte("content")); got != "h-content" {
		t.Errorf("HashBytes = %s, want h-content", got)
	}
}
