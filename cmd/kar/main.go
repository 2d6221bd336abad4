// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/koru2d/utility/kar"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the file given")
	compress        = flag.String("c", "", "Compress the given folder")
	dstFile         = flag.String("f", "out.kar", "Destination file")
	outDir          = flag.String("o", ".", "Directory to extract into")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	if *extract != "" && *compress != "" {
		log.Fatal("only one operation at a time")
	}

	switch {
	case *extract != "":
		if err := extractFiles(*extract, *outDir); err != nil {
			log.Fatal(err)
		}
	case *compress != "":
		name := *author
		if name == "" {
			name = currentUserName
		}
		header := kar.Header{Author: name, DateCreated: time.Now().Unix(), Version: *version}
		if err := compressFiles(*compress, *dstFile, header); err != nil {
			log.Fatal(err)
		}
	default:
		flag.PrintDefaults()
	}
}

func compressFiles(src, dst string, header kar.Header) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.Errorf("destination file %s exists, will not overwrite", dst)
	}

	builder := kar.NewBuilder(header)
	if err := builder.AddDir(src); err != nil {
		return errors.Wrapf(err, "add %s", src)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := builder.WriteTo(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", dst)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"files": builder.Len(), "bytes": n}).Infof("wrote %s", dst)
	return nil
}

func extractFiles(file, dir string) error {
	r, err := mmap.Open(file)
	if err != nil {
		return errors.Wrapf(err, "map %s", file)
	}
	defer r.Close()

	archive, err := kar.Open(r)
	if err != nil {
		return errors.Wrapf(err, "open %s", file)
	}

	for _, name := range archive.Files() {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if rel, err := filepath.Rel(dir, target); err != nil || strings.HasPrefix(rel, "..") {
			return errors.Errorf("%s escapes %s", name, dir)
		}
		data, err := archive.ReadAll(name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
		log.WithField("bytes", len(data)).Debugf("extracted %s", name)
	}
	log.WithField("files", len(archive.Files())).Infof("extracted %s", file)
	return nil
}
