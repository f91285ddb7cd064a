package store

import (
	"path/filepath"
	"testing"
)

type kv interface {
	Get(string) (string, bool, error)
	Set(string, string) error
}

func exercise(t *testing.T, s kv) {
	t.Helper()
	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("a", "2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get("a")
	if err != nil || !ok || v != "2" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spiral.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, s)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// values survive reopening
	s, err = NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if v, ok, _ := s.Get("a"); !ok || v != "2" {
		t.Fatalf("after reopen got %q ok=%v", v, ok)
	}
}
