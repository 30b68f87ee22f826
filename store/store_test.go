package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nightjar-mud/nightjar/pkg/bytecode"
	"github.com/nightjar-mud/nightjar/pkg/value"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "artifacts.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testFunction(t *testing.T, n int32) *bytecode.Function {
	t.Helper()
	w := bytecode.NewWriter()
	w.LoadConst(value.FromInt(n))
	w.Return()
	fn, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestStorePutGet(t *testing.T) {
	s := testStore(t)
	fn := testFunction(t, 42)

	digest, err := s.Put("world/room/tavern.nj", fn)
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if len(digest) != 64 {
		t.Errorf("digest %q is not hex SHA-256", digest)
	}

	got, err := s.Get("world/room/tavern.nj")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(got.Code, fn.Code) {
		t.Errorf("code differs: %v, want %v", got.Code, fn.Code)
	}
	if got.ConstAt(0).Int() != 42 {
		t.Errorf("constant 0 = %v, want 42", got.ConstAt(0))
	}
}

func TestStorePutReplaces(t *testing.T) {
	s := testStore(t)

	first, err := s.Put("world/item/sword.nj", testFunction(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Put("world/item/sword.nj", testFunction(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("different artifacts produced the same digest")
	}

	got, err := s.Get("world/item/sword.nj")
	if err != nil {
		t.Fatal(err)
	}
	if got.ConstAt(0).Int() != 2 {
		t.Errorf("constant 0 = %v, want the replacement", got.ConstAt(0))
	}

	digest, err := s.GetDigest("world/item/sword.nj")
	if err != nil {
		t.Fatal(err)
	}
	if digest != second {
		t.Errorf("GetDigest() = %s, want %s", digest, second)
	}
}

func TestStoreGetMissing(t *testing.T) {
	s := testStore(t)

	if _, err := s.Get("no/such/path"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() = %v, want ErrNotFound", err)
	}
	if _, err := s.GetDigest("no/such/path"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetDigest() = %v, want ErrNotFound", err)
	}
}

func TestStoreDelete(t *testing.T) {
	s := testStore(t)

	if _, err := s.Put("world/npc/guard.nj", testFunction(t, 3)); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("world/npc/guard.nj"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get("world/npc/guard.nj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete("world/npc/guard.nj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}

func TestStoreList(t *testing.T) {
	s := testStore(t)

	paths := []string{"b.nj", "a.nj", "c.nj"}
	for i, p := range paths {
		if _, err := s.Put(p, testFunction(t, int32(i))); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	// Path order.
	for i, want := range []string{"a.nj", "b.nj", "c.nj"} {
		if entries[i].Path != want {
			t.Errorf("entry %d = %s, want %s", i, entries[i].Path, want)
		}
		if entries[i].Size <= 0 {
			t.Errorf("entry %d has size %d", i, entries[i].Size)
		}
	}
}

func TestStoreDigestIsContentAddressed(t *testing.T) {
	s := testStore(t)

	a, err := s.Put("one.nj", testFunction(t, 5))
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Put("two.nj", testFunction(t, 5))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical artifacts under different paths got different digests")
	}
}
