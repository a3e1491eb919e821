// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import "github.com/pkg/errors"

// Errors returned by the registry and the node factory. They are always wrapped with more context, use
// errors.Is to check for them.
var (
	// ErrUnknownOpset is returned when the requested version has no registered table.
	ErrUnknownOpset = errors.New("unknown opset version")

	// ErrUnknownOperation is returned when the operation is not defined in the resolved opset.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInputArity is returned when the number of inputs is out of the bounds of the operation.
	ErrInputArity = errors.New("invalid number of inputs")

	// ErrMissingAttribute is returned when a required attribute without default is absent.
	ErrMissingAttribute = errors.New("missing required attribute")

	// ErrInvalidAttributeValue is returned when an attribute is unknown, of the wrong kind or has an
	// invalid value.
	ErrInvalidAttributeValue = errors.New("invalid attribute value")

	// ErrUnsupportedValue is returned when a value can't be used as a node input.
	ErrUnsupportedValue = errors.New("unsupported value")
)
