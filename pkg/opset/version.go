// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version identifies an opset, e.g. "opset3".
type Version string

// Built-in versions.
const (
	// Opset0 holds the legacy operations, with static attributes where later opsets take inputs.
	Opset0 Version = "opset0"
	Opset1 Version = "opset1"
	Opset2 Version = "opset2"
	Opset3 Version = "opset3"
	Opset4 Version = "opset4"
)

// Latest returns the latest built-in version.
func Latest() Version { return Opset4 }

// ParseVersion accepts "opset3", "OpSet3" or simply "3". The empty string returns Latest().
//
// It only checks the format: whether the version is registered is checked by Registry.Resolve.
func ParseVersion(s string) (Version, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Latest(), nil
	}
	number := strings.TrimPrefix(s, "opset")
	n, err := strconv.Atoi(number)
	if err != nil || n < 0 {
		return "", errors.Wrapf(ErrUnknownOpset, "can't parse opset version %q", s)
	}
	return Version("opset" + strconv.Itoa(n)), nil
}

// Number returns the numeric part of the version, or -1 if it is malformed.
func (v Version) Number() int {
	n, err := strconv.Atoi(strings.TrimPrefix(string(v), "opset"))
	if err != nil {
		return -1
	}
	return n
}

// String implements fmt.Stringer.
func (v Version) String() string { return string(v) }
