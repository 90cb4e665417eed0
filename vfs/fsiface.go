package vfs

import (
	"bytes"
	"io"
	"io/fs"
	"strings"
	"time"
)

// fileInfo adapts a node to fs.FileInfo.
type fileInfo struct {
	name string
	n    *node
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return int64(len(fi.n.data)) }
func (fi fileInfo) Mode() fs.FileMode  { return fi.n.mode }
func (fi fileInfo) ModTime() time.Time { return fi.n.modTime }
func (fi fileInfo) IsDir() bool        { return fi.n.kind == KindDir }
func (fi fileInfo) Sys() any           { return fi.n }

// dirEntry adapts a node to fs.DirEntry.
type dirEntry struct {
	name string
	n    *node
}

func (de dirEntry) Name() string               { return de.name }
func (de dirEntry) IsDir() bool                 { return de.n.kind == KindDir }
func (de dirEntry) Type() fs.FileMode           { return de.n.mode.Type() }
func (de dirEntry) Info() (fs.FileInfo, error)  { return fileInfo{name: de.name, n: de.n}, nil }

// Open implements fs.FS, satisfying doublestar.Glob's requirements.
func (f *FS) Open(name string) (fs.File, error) {
	abs := f.abs("/" + strings.TrimPrefix(name, "/"))
	n, err := f.resolve(abs, true)
	if err != nil {
		return nil, &PathError{"open", name, err}
	}
	if n.kind == KindDir {
		entries, rdErr := f.Readdir(abs)
		if rdErr != nil {
			return nil, rdErr
		}
		return &openDir{info: fileInfo{name: baseName(abs), n: n}, entries: entries}, nil
	}
	return &openFile{info: fileInfo{name: baseName(abs), n: n}, r: bytes.NewReader(n.data)}, nil
}

func baseName(abs string) string {
	if abs == "/" {
		return "/"
	}
	i := strings.LastIndexByte(abs, '/')
	return abs[i+1:]
}

// ReadDir implements fs.ReadDirFS.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	return f.Readdir("/" + strings.TrimPrefix(name, "/"))
}

type openFile struct {
	info fileInfo
	r    *bytes.Reader
}

func (of *openFile) Stat() (fs.FileInfo, error) { return of.info, nil }
func (of *openFile) Read(p []byte) (int, error) { return of.r.Read(p) }
func (of *openFile) Close() error               { return nil }

type openDir struct {
	info    fileInfo
	entries []fs.DirEntry
	pos     int
}

func (od *openDir) Stat() (fs.FileInfo, error) { return od.info, nil }
func (od *openDir) Read([]byte) (int, error)   { return 0, &PathError{"read", od.info.name, ErrIsDir} }
func (od *openDir) Close() error               { return nil }

func (od *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if n <= 0 {
		rest := od.entries[od.pos:]
		od.pos = len(od.entries)
		return rest, nil
	}
	if od.pos >= len(od.entries) {
		return nil, io.EOF
	}
	end := od.pos + n
	if end > len(od.entries) {
		end = len(od.entries)
	}
	out := od.entries[od.pos:end]
	od.pos = end
	return out, nil
}
