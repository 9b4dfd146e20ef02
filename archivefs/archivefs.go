// Copyright 2023 Chainguard, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package archivefs exposes a .tar archive stored inside a DEFLATE, zlib,
// or gzip compressed stream as an fs.FS, reading archive members through a
// zran.Reader so opening one file never requires decompressing the whole
// tarball.
package archivefs

import (
	"archive/tar"
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/cjgriscom/zran/zran"
)

// Entry describes one tar member and the uncompressed byte offset at which
// its content begins.
type Entry struct {
	Header tar.Header
	Offset int64

	Filename string
	dir      string
	fi       fs.FileInfo
}

func (e Entry) Name() string      { return e.fi.Name() }
func (e Entry) Size() int64       { return e.Header.Size }
func (e Entry) Type() fs.FileMode { return e.fi.Mode().Type() }
func (e Entry) IsDir() bool       { return e.fi.IsDir() }

func (e Entry) Info() (fs.FileInfo, error) { return e.fi, nil }

// File is an open archive member, backed by an io.SectionReader over the
// shared zran.Reader.
type File struct {
	Entry *Entry

	fsys *FS
	sr   *io.SectionReader

	cursor int // position in a ReadDir listing
}

func (f *File) Stat() (fs.FileInfo, error) { return f.Entry.fi, nil }
func (f *File) Read(p []byte) (int, error) { return f.sr.Read(p) }
func (f *File) Close() error                { return nil }

func (f *File) ReadAt(p []byte, off int64) (int, error) { return f.sr.ReadAt(p, off) }
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.sr.Seek(offset, whence)
}

func (f *File) ReadDir(n int) ([]fs.DirEntry, error) {
	if n == 0 {
		return nil, nil
	}

	dir, err := f.fsys.ReadDir(f.Entry.Filename)
	if err != nil {
		return nil, err
	}

	if f.cursor >= len(dir) {
		if n < 0 {
			return nil, nil
		}
		return nil, io.EOF
	}

	if n > 0 && len(dir)-f.cursor > n {
		ret := dir[f.cursor : f.cursor+n]
		f.cursor += n
		return ret, nil
	}

	ret := dir[f.cursor:]
	f.cursor = len(dir)
	return ret, nil
}

// FS is an fs.FS over one tar archive, backed by an io.ReaderAt (typically
// a *zran.Reader) into the decompressed byte stream.
type FS struct {
	ra    io.ReaderAt
	files []*Entry
	index map[string]int
	dirs  map[string][]fs.DirEntry
}

// New builds an FS by walking the tar archive found in the uncompressed
// view idx describes, as presented by a zran.Reader over src. The whole
// archive is walked once up front (the member table is small relative to
// the archive contents); individual member reads afterward go through
// zran's random access, not a second linear pass.
func New(src zran.SeekReaderAt, idx *zran.DeflateIndex) (*FS, error) {
	zr, err := zran.NewReader(src, idx)
	if err != nil {
		return nil, fmt.Errorf("archivefs: %w", err)
	}
	return newFromReaderAt(zr, idx.Length())
}

func newFromReaderAt(ra io.ReaderAt, size int64) (*FS, error) {
	fsys := &FS{
		ra:    ra,
		files: []*Entry{},
		index: map[string]int{},
		dirs:  map[string][]fs.DirEntry{},
	}

	dirCount := map[string]int{}

	if size < 0 {
		size = 1<<63 - 1
	}

	r := io.NewSectionReader(ra, 0, size)
	cr := &countReader{bufio.NewReaderSize(r, 1<<20), 0}
	tr := tar.NewReader(cr)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("archivefs: reading tar headers: %w", err)
		}

		normalized := normalize(hdr.Name)
		dir := path.Dir(normalized)

		fsys.index[normalized] = len(fsys.files)
		fsys.files = append(fsys.files, &Entry{
			Header:   *hdr,
			Offset:   cr.n,
			Filename: normalized,
			dir:      dir,
			fi:       hdr.FileInfo(),
		})
		dirCount[dir]++
	}

	for dir, count := range dirCount {
		fsys.dirs[dir] = make([]fs.DirEntry, 0, count)
	}
	for _, f := range fsys.files {
		fsys.dirs[f.dir] = append(fsys.dirs[f.dir], f)
	}
	for _, files := range fsys.dirs {
		slices.SortFunc(files, func(a, b fs.DirEntry) int {
			return cmp.Compare(a.Name(), b.Name())
		})
	}

	return fsys, nil
}

func (fsys *FS) Entry(name string) (*Entry, error) {
	i, ok := fsys.index[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return fsys.files[i], nil
}

func (fsys *FS) Readlink(name string) (string, error) {
	e, err := fsys.Entry(name)
	if err != nil {
		return "", err
	}
	switch e.Header.Typeflag {
	case tar.TypeSymlink, tar.TypeLink:
		return e.Header.Linkname, nil
	}
	return "", fmt.Errorf("archivefs: Readlink(%q): not a link", name)
}

func dirs(name string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, v := range name {
			if v == '/' {
				if !yield(name[0:i]) {
					return
				}
			}
		}
	}
}

// arbitrary cap, matching filepath.EvalSymlinks' convention for bounding
// symlink chases.
const maxHops = 255

func (fsys *FS) open(name string, hops int) (fs.File, error) {
	if hops > maxHops {
		return nil, fmt.Errorf("archivefs: opening %s: chased too many (%d) symlinks", name, maxHops)
	}

	e, err := fsys.Entry(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			for dir := range dirs(name) {
				de, derr := fsys.Entry(dir)
				if derr != nil || de.Header.Typeflag != tar.TypeSymlink {
					continue
				}
				rest := strings.TrimPrefix(name, dir)
				link := de.Header.Linkname
				if path.IsAbs(link) {
					return fsys.open(normalize(path.Join(link, rest)), hops+1)
				}
				return fsys.open(path.Join(de.dir, link, rest), hops+1)
			}
		}
		return nil, err
	}

	switch e.Header.Typeflag {
	case tar.TypeSymlink, tar.TypeLink:
		link := e.Header.Linkname
		if path.IsAbs(link) || e.Header.Typeflag == tar.TypeLink {
			return fsys.open(normalize(link), hops+1)
		}
		return fsys.open(path.Join(e.dir, link), hops+1)
	}

	return &File{
		Entry: e,
		fsys:  fsys,
		sr:    io.NewSectionReader(fsys.ra, e.Offset, e.Header.Size),
	}, nil
}

// Open implements fs.FS.
func (fsys *FS) Open(name string) (fs.File, error) {
	if name == "." {
		return &File{
			Entry: &Entry{dir: ".", Filename: ".", Header: tar.Header{Name: "."}, fi: root{}},
			fsys:  fsys,
			sr:    io.NewSectionReader(nil, 0, 0),
		}, nil
	}
	return fsys.open(name, 0)
}

type root struct{}

func (root) Name() string       { return "." }
func (root) Size() int64        { return 0 }
func (root) Mode() fs.FileMode  { return fs.ModeDir }
func (root) ModTime() time.Time { return time.Unix(0, 0) }
func (root) IsDir() bool        { return true }
func (root) Sys() any           { return nil }

func (fsys *FS) Stat(name string) (fs.FileInfo, error) {
	if i, ok := fsys.index[name]; ok {
		return fsys.files[i].fi, nil
	}
	if name == "." {
		return root{}, nil
	}
	return nil, fs.ErrNotExist
}

func (fsys *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	dirs, ok := fsys.dirs[name]
	if !ok {
		return []fs.DirEntry{}, nil
	}
	return dirs, nil
}

type countReader struct {
	r io.Reader
	n int64
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

func normalize(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(strings.TrimSuffix(s, "/"), "/"), "./")
}
