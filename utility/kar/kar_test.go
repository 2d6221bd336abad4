// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"

	"github.com/devblok/koru2d/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func build(c *qt.C) []byte {
	builder := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	c.Assert(builder.Add("test", []byte(testString1)), qt.IsNil)
	c.Assert(builder.Add("test2", []byte(testString2)), qt.IsNil)
	c.Assert(builder.Len(), qt.Equals, 2)

	buf := bytes.NewBuffer(nil)
	written, err := builder.WriteTo(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(written, qt.Equals, int64(buf.Len()))
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)
	ar, err := kar.Open(bytes.NewReader(build(c)))
	c.Assert(err, qt.IsNil)

	f, err := ar.Open("test")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Size(), qt.Equals, int64(len(testString1)))

	result, err := io.ReadAll(f)
	c.Assert(err, qt.IsNil)
	c.Assert(string(result), qt.Equals, testString1)
}

func TestCreateAndReadAll(t *testing.T) {
	c := qt.New(t)
	ar, err := kar.Open(bytes.NewReader(build(c)))
	c.Assert(err, qt.IsNil)

	c.Assert(ar.Files(), qt.DeepEquals, []string{"test", "test2"})
	c.Assert(ar.Header().Author, qt.Equals, "devblok")

	for name, want := range map[string]string{"test": testString1, "test2": testString2} {
		got, err := ar.ReadAll(name)
		c.Assert(err, qt.IsNil)
		c.Assert(string(got), qt.Equals, want)
	}
}

func TestReadMissing(t *testing.T) {
	c := qt.New(t)
	ar, err := kar.Open(bytes.NewReader(build(c)))
	c.Assert(err, qt.IsNil)

	_, err = ar.ReadAll("nope")
	c.Assert(errors.Is(err, kar.ErrNotFound), qt.IsTrue)
}

func TestAddDuplicate(t *testing.T) {
	c := qt.New(t)
	builder := kar.NewBuilder(kar.Header{})
	c.Assert(builder.Add("a", []byte("x")), qt.IsNil)
	err := builder.Add("a", []byte("y"))
	c.Assert(errors.Is(err, kar.ErrDuplicate), qt.IsTrue)
}

func TestOpenNotKar(t *testing.T) {
	c := qt.New(t)
	_, err := kar.Open(bytes.NewReader([]byte("PK\x03\x04 not a kar archive")))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)

	_, err = kar.Open(bytes.NewReader([]byte("KA")))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
}

func TestAddDirAndOpenmmap(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()
	c.Assert(os.MkdirAll(filepath.Join(dir, "shaders", "2d"), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(dir, "shaders", "2d", "vert.spv"), []byte("this is a test"), 0o644), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(dir, "shaders", "2d", "frag.spv"), []byte("this is another test"), 0o644), qt.IsNil)

	builder := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	c.Assert(builder.AddDir(dir), qt.IsNil)

	path := filepath.Join(c.TempDir(), "opentest.kar")
	f, err := os.Create(path)
	c.Assert(err, qt.IsNil)
	_, err = builder.WriteTo(f)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	r, err := mmap.Open(path)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	ar, err := kar.Open(r)
	c.Assert(err, qt.IsNil)
	got, err := ar.ReadAll("shaders/2d/frag.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(string(got), qt.Equals, "this is another test")
}

func archiveWithHeader(c *qt.C, size int64, header []byte) []byte {
	buf := bytes.NewBufferString("KAR\x00")
	c.Assert(binary.Write(buf, binary.LittleEndian, size), qt.IsNil)
	buf.Write(header)
	return buf.Bytes()
}

func TestOpenHeaderTooLarge(t *testing.T) {
	c := qt.New(t)
	_, err := kar.Open(bytes.NewReader(archiveWithHeader(c, 1<<40, []byte("short"))))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)

	_, err = kar.Open(bytes.NewReader(archiveWithHeader(c, -8, nil)))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
}

func TestOpenNegativeEntry(t *testing.T) {
	c := qt.New(t)
	var header bytes.Buffer
	c.Assert(gob.NewEncoder(&header).Encode(kar.Header{
		Author: "devblok",
		Index:  []kar.IndexEntry{{Name: "test", Size: -1, CompressedSize: 4}},
	}), qt.IsNil)

	_, err := kar.Open(bytes.NewReader(archiveWithHeader(c, int64(header.Len()), header.Bytes())))
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "index entry test: .*")
}
