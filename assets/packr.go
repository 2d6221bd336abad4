// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import "github.com/gobuffalo/packr"

// NewPackrLoader reads from a packr box rooted at dir. Built with the
// packr tool the files are embedded, otherwise they are read from disk.
func NewPackrLoader(dir string) *BoxLoader {
	box := packr.NewBox(dir)
	return NewBoxLoader(&box)
}
