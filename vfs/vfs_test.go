package vfs

import (
	"testing"
)

func TestWriteReadFile(t *testing.T) {
	fsys := New()
	if err := fsys.WriteFile("/tmp/hello.txt", []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := fsys.ReadFile("/tmp/hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hi" {
		t.Fatalf("got %q, want %q", data, "hi")
	}
}

func TestMkdirAndReaddir(t *testing.T) {
	fsys := New()
	if err := fsys.Mkdir("/tmp/sub", 0755); err != nil {
		t.Fatal(err)
	}
	if err := fsys.WriteFile("/tmp/sub/a.txt", []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fsys.WriteFile("/tmp/sub/b.txt", []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := fsys.Readdir("/tmp/sub")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name() != "a.txt" || entries[1].Name() != "b.txt" {
		t.Fatalf("unexpected order: %v, %v", entries[0].Name(), entries[1].Name())
	}
}

func TestSymlinkResolution(t *testing.T) {
	fsys := New()
	if err := fsys.WriteFile("/tmp/real.txt", []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Symlink("/tmp/real.txt", "/tmp/link.txt"); err != nil {
		t.Fatal(err)
	}
	data, err := fsys.ReadFile("/tmp/link.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "data" {
		t.Fatalf("got %q, want %q", data, "data")
	}
}

func TestSymlinkCycleDetected(t *testing.T) {
	fsys := New()
	if err := fsys.Symlink("/tmp/b", "/tmp/a"); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Symlink("/tmp/a", "/tmp/b"); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.ReadFile("/tmp/a"); err == nil {
		t.Fatal("expected a cycle error, got nil")
	}
}

func TestUnlinkAndRmdir(t *testing.T) {
	fsys := New()
	fsys.WriteFile("/tmp/x.txt", []byte("x"), 0644)
	if err := fsys.Unlink("/tmp/x.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.Stat("/tmp/x.txt"); err == nil {
		t.Fatal("expected file to be gone")
	}
	if err := fsys.Mkdir("/tmp/empty", 0755); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Rmdir("/tmp/empty"); err != nil {
		t.Fatal(err)
	}
}

func TestChdirRelativePaths(t *testing.T) {
	fsys := New()
	fsys.Mkdir("/tmp/work", 0755)
	if err := fsys.Chdir("/tmp/work"); err != nil {
		t.Fatal(err)
	}
	if err := fsys.WriteFile("rel.txt", []byte("r"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := fsys.Stat("/tmp/work/rel.txt"); err != nil {
		t.Fatalf("expected file at absolute path: %v", err)
	}
}

func TestOpenSatisfiesFsFS(t *testing.T) {
	fsys := New()
	fsys.WriteFile("/tmp/f.txt", []byte("v"), 0644)
	f, err := fsys.Open("tmp/f.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 'v' {
		t.Fatalf("got %q, want %q", buf, "v")
	}
}
