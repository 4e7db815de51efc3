// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	ctx := context.Background()

	if err := fs.Write(ctx, "snapshots/pairs/a.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "snapshots/pairs/a.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestLocalFS_ListSorted(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "snapshots/pairs/2024/02/c.json", []byte("c"))
	fs.Write(ctx, "snapshots/pairs/2024/01/b.json", []byte("b"))
	fs.Write(ctx, "snapshots/pairs/2024/01/a.json", []byte("a"))
	fs.Write(ctx, "snapshots/calendar/x.json", []byte("x"))

	keys, err := fs.List(ctx, "snapshots/pairs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{
		"snapshots/pairs/2024/01/a.json",
		"snapshots/pairs/2024/01/b.json",
		"snapshots/pairs/2024/02/c.json",
	}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestLocalFS_ListMissingPrefix(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	keys, err := fs.List(context.Background(), "snapshots/none")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	fs.Write(ctx, "delete.json", []byte("data"))
	if err := fs.Delete(ctx, "delete.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Read(ctx, "delete.json"); err == nil {
		t.Error("file should be deleted")
	}
}
