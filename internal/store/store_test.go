package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// createTestStore creates a store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testExecution(requestID string, seq int64, query string) Execution {
	return Execution{
		RequestID: requestID,
		Seq:       seq,
		Extension: "water",
		QueryText: query,
		Accept:    "application/sparql-results+json",
		Outcome:   "ok",
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		if i == 0 {
			if err := s.RecordExecution(context.Background(), testExecution("req-1", 1, "SELECT * WHERE { ?s ?p ?o . }")); err != nil {
				t.Fatalf("RecordExecution() failed: %v", err)
			}
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	got, err := s.ReadExecutions(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("ReadExecutions() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 execution to survive reopen, got %d", len(got))
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	for _, p := range filePragmas {
		got, err := s.pragma(p.name)
		if err != nil {
			t.Fatal(err)
		}
		if got != p.reported {
			t.Errorf("%s = %q, expected %q", p.name, got, p.reported)
		}
	}

	version, err := s.pragma("user_version")
	if err != nil {
		t.Fatal(err)
	}
	if version != "1" {
		t.Errorf("user_version = %q, expected %q", version, "1")
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", MemoryPath, err)
	}
	defer s.Close()

	if s.Path() != MemoryPath {
		t.Errorf("Path() = %q", s.Path())
	}
	if err := s.RecordExecution(context.Background(), testExecution("req-m", 1, "SELECT * WHERE { ?s ?p ?o . }")); err != nil {
		t.Fatalf("RecordExecution() failed: %v", err)
	}
	got, err := s.ReadExecutions(context.Background(), "req-m")
	if err != nil {
		t.Fatalf("ReadExecutions() failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 execution, got %d", len(got))
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error opening database with newer schema")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on empty store returned %v", err)
	}
}
