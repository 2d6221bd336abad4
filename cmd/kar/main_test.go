// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/koru2d/utility/kar"
)

func TestCompressExtract(t *testing.T) {
	c := qt.New(t)
	src := c.TempDir()
	c.Assert(os.MkdirAll(filepath.Join(src, "shaders", "2d"), 0755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(src, "shaders", "2d", "vert.spv"), []byte("vertex"), 0644), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(src, "readme"), []byte("text"), 0644), qt.IsNil)

	archive := filepath.Join(c.TempDir(), "out.kar")
	c.Assert(compressFiles(src, archive, kar.Header{Author: "test", Version: 2}), qt.IsNil)
	// the archive is never overwritten
	c.Assert(compressFiles(src, archive, kar.Header{}), qt.ErrorMatches, "destination file .* exists, will not overwrite")

	dst := c.TempDir()
	c.Assert(extractFiles(archive, dst), qt.IsNil)
	data, err := os.ReadFile(filepath.Join(dst, "shaders", "2d", "vert.spv"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "vertex")
	data, err = os.ReadFile(filepath.Join(dst, "readme"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "text")
}

func TestExtractMissing(t *testing.T) {
	c := qt.New(t)
	err := extractFiles(filepath.Join(c.TempDir(), "none.kar"), c.TempDir())
	c.Assert(err, qt.ErrorMatches, "map .*none.kar: .*")
}
