package blob

import (
	"bytes"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	return s
}

func TestPutAndGet_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	payload := []byte("hello blob store")

	h, err := s.Put(payload)
	if err != nil {
		t.Fatalf("Put: unexpected error: %v", err)
	}

	got, err := s.Get(h)
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get = %q, want %q", got, payload)
	}
}

func TestPut_SameBytesProduceSameHash(t *testing.T) {
	s := newTestStore(t)
	payload := []byte("deduplicate me")

	h1, err := s.Put(payload)
	if err != nil {
		t.Fatalf("Put (1st): unexpected error: %v", err)
	}
	h2, err := s.Put(payload)
	if err != nil {
		t.Fatalf("Put (2nd): unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ for identical payloads: %v != %v", h1, h2)
	}
}

func TestRelease_DeletesOnlyAtZeroRefcount(t *testing.T) {
	s := newTestStore(t)
	payload := []byte("shared payload")

	h, err := s.Put(payload)
	if err != nil {
		t.Fatalf("Put (1st): unexpected error: %v", err)
	}
	if _, err := s.Put(payload); err != nil {
		t.Fatalf("Put (2nd): unexpected error: %v", err)
	}

	if err := s.Release(h); err != nil {
		t.Fatalf("Release (1st): unexpected error: %v", err)
	}
	if _, err := s.Get(h); err != nil {
		t.Fatalf("Get after one release: unexpected error: %v (blob should still be referenced)", err)
	}

	if err := s.Release(h); err != nil {
		t.Fatalf("Release (2nd): unexpected error: %v", err)
	}
	if _, err := s.Get(h); err == nil {
		t.Error("expected Get to fail once refcount reaches zero")
	}
}

func TestGet_UnknownHashReturnsError(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(Hash("0000000000000000000000000000000000000000000000000000000000000000")); err == nil {
		t.Fatal("expected Get of an unknown hash to error")
	}
}
