// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"
	"os"

	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	buf := make([]byte, MagicLength)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}
	if !bytes.Equal(buf, magic[:]) {
		return nil, ErrFileFormat
	}

	sizeBytes := make([]byte, HeaderSizeNumberLength)
	if _, err := r.ReadAt(sizeBytes, MagicLength); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}
	headerSize, err := binaryToint64(sizeBytes)
	if err != nil || headerSize <= 0 || headerSize > maxHeaderSize(r) {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}

	ar := &Archive{
		reader: r,
		data:   MagicLength + HeaderSizeNumberLength + headerSize,
	}
	if err := gobDecode(&ar.header, headerBytes); err != nil {
		return nil, errors.Wrap(ErrFileFormat, err.Error())
	}
	for _, e := range ar.header.Index {
		if e.Offset < 0 || e.Size < 0 || e.CompressedSize < 0 {
			return nil, errors.Wrapf(ErrFileFormat, "index entry %s", e.Name)
		}
	}
	return ar, nil
}

// maxHeaderSize is what is left of r after the size prefix, or
// MaxHeaderSize when the length of r can not be told.
func maxHeaderSize(r io.ReaderAt) int64 {
	size := int64(-1)
	switch v := r.(type) {
	case interface{ Size() int64 }:
		size = v.Size()
	case interface{ Len() int }:
		size = int64(v.Len())
	case *os.File:
		if info, err := v.Stat(); err == nil {
			size = info.Size()
		}
	}
	if size < 0 {
		return MaxHeaderSize
	}
	return size - MagicLength - HeaderSizeNumberLength
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	header Header
	data   int64
}

// Header returns the archive header with the file index.
func (a *Archive) Header() Header {
	return a.header
}

// Files lists the names of every file in the archive.
func (a *Archive) Files() []string {
	names := make([]string, len(a.header.Index))
	for i, e := range a.header.Index {
		names[i] = e.Name
	}
	return names
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, f.Size())
	w := bytes.NewBuffer(out)
	if _, err := io.Copy(w, f); err != nil {
		return nil, errors.Wrapf(err, "decompress %s", name)
	}
	return w.Bytes(), nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Find(name)
	if !ok {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	section := io.NewSectionReader(a.reader, a.data+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader io.Reader
}

// Size of the decompressed file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}
