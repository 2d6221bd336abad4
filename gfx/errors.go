// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/devblok/koru2d/device"
)

// Error categories. Anything returned by the renderer wraps one of these,
// match them with errors.Is.
var (
	// ErrUnsupported means no adapter can run the renderer.
	ErrUnsupported = device.ErrUnsupported

	// ErrDevice is any failed device side construction or command.
	ErrDevice = errors.New("device failure")

	// ErrMisuse is a programming error by the caller.
	ErrMisuse = errors.New("misuse")
)

// Fatal attaches msg to a driver error and marks it as a device failure.
// A nil err yields nil.
func Fatal(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &categorized{cause: errors.Wrap(err, msg), category: ErrDevice}
}

// Misuse formats a misuse error.
func Misuse(format string, args ...interface{}) error {
	return errors.Wrap(ErrMisuse, fmt.Sprintf(format, args...))
}

// categorized keeps the driver error as the message while still
// matching its category.
type categorized struct {
	cause    error
	category error
}

func (c *categorized) Error() string { return c.cause.Error() }

func (c *categorized) Unwrap() error { return c.cause }

func (c *categorized) Is(target error) bool { return target == c.category }

// Cause lets errors.Cause reach the original driver error.
func (c *categorized) Cause() error { return errors.Cause(c.cause) }
