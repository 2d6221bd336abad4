// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets resolves the compiled resources the renderer loads at
// runtime, from a directory, a packr box or a kar archive.
package assets

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobuffalo/packd"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"

	"github.com/devblok/koru2d/gfx"
	"github.com/devblok/koru2d/utility/kar"
)

// ErrNotFound is returned for a resource no loader has.
var ErrNotFound = errors.New("asset not found")

// Asset sources.
const (
	SourceDir = "dir"
	SourceBox = "box"
	SourceKar = "kar"
)

const (
	shaderDir    = "shaders"
	shaderSuffix = ".spv"
)

// ShaderPath maps a source shader name such as "2d/vert.glsl" to its
// compiled sibling "shaders/2d/vert.spv".
func ShaderPath(name string) string {
	name = path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "/"))
	return path.Join(shaderDir, strings.TrimSuffix(name, path.Ext(name))+shaderSuffix)
}

// Loader is a gfx.Loader that may hold on to a file.
type Loader interface {
	gfx.Loader

	// Close releases whatever the loader keeps open.
	Close() error
}

// Open returns the loader for a source, location is the directory,
// box path or archive file it reads from.
func Open(source, location string) (Loader, error) {
	switch source {
	case SourceDir:
		return DirLoader{Root: location}, nil
	case SourceBox:
		return NewPackrLoader(location), nil
	case SourceKar:
		return OpenArchive(location)
	}
	return nil, errors.Errorf("unknown asset source %q", source)
}

// DirLoader reads resources below a directory.
type DirLoader struct {
	Root string
}

// Load implements gfx.Loader.
func (l DirLoader) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.Root, filepath.FromSlash(name)))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return data, err
}

// Close implements Loader.
func (DirLoader) Close() error { return nil }

// Box is the part of a packr or packd box a BoxLoader uses.
type Box interface {
	packd.Finder
	packd.Lister
}

// BoxLoader reads resources from a box.
type BoxLoader struct {
	box Box
}

// NewBoxLoader returns a loader reading from box.
func NewBoxLoader(box Box) *BoxLoader {
	return &BoxLoader{box: box}
}

// Load implements gfx.Loader.
func (l *BoxLoader) Load(name string) ([]byte, error) {
	data, err := l.box.Find(name)
	if err != nil {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return data, nil
}

// Files lists the resources in the box, sorted.
func (l *BoxLoader) Files() []string {
	files := l.box.List()
	for i, f := range files {
		files[i] = filepath.ToSlash(f)
	}
	sort.Strings(files)
	return files
}

// Close implements Loader.
func (l *BoxLoader) Close() error { return nil }

// ArchiveLoader reads resources from a memory mapped kar archive.
type ArchiveLoader struct {
	file    *mmap.ReaderAt
	archive *kar.Archive
}

// OpenArchive maps a kar archive.
func OpenArchive(file string) (*ArchiveLoader, error) {
	r, err := mmap.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "map %s", file)
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "open %s", file)
	}
	return &ArchiveLoader{file: r, archive: ar}, nil
}

// Load implements gfx.Loader.
func (l *ArchiveLoader) Load(name string) ([]byte, error) {
	data, err := l.archive.ReadAll(name)
	if errors.Is(err, kar.ErrNotFound) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return data, err
}

// Files lists the resources in the archive.
func (l *ArchiveLoader) Files() []string {
	return l.archive.Files()
}

// Close unmaps the archive.
func (l *ArchiveLoader) Close() error {
	return l.file.Close()
}
