// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"slices"

	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/pkg/errors"
)

// Normalize validates a request against the operation spec and returns the complete set of attributes the engine
// will receive: literal defaults and per-axis defaults filled in, values converted to the declared kinds and
// enums in their canonical case.
//
// It doesn't compute derived inputs, see NodeFactory.Create.
func (s *OpSpec) Normalize(inputs []backends.Output, attrs attributes.Bag) (attributes.Bag, error) {
	for ii, input := range inputs {
		if !input.Ok() {
			return nil, errors.Wrapf(ErrUnsupportedValue, "input #%d (%s) is not a valid node output", ii, s.inputName(ii))
		}
	}
	normalized, err := s.Validate(len(inputs), attrs)
	if err != nil {
		return nil, err
	}
	for _, check := range s.inputChecks {
		if err := check(inputs, normalized); err != nil {
			return nil, err
		}
	}
	return normalized, nil
}

// Validate runs every validation that doesn't need the input nodes: the number of inputs, the attributes
// and the checks of the operation. It returns the normalized attributes, like Normalize.
//
// It allows callers to reject a request before creating any of its inputs on the engine.
func (s *OpSpec) Validate(numInputs int, attrs attributes.Bag) (attributes.Bag, error) {
	if err := s.checkArity(numInputs); err != nil {
		return nil, err
	}
	for _, name := range attrs.Names() {
		if s.attrIndex(name) == -1 {
			return nil, errors.Wrapf(ErrInvalidAttributeValue, "unknown attribute %q, %s accepts %v",
				name, s.name, s.attributeNames())
		}
	}

	normalized := make(attributes.Bag, len(s.attrs))
	for _, a := range s.attrs {
		v, found := attrs[a.name]
		if !found {
			if a.HasDefault() {
				normalized[a.name] = a.defaultValue
				continue
			}
			if a.hasFill || a.optional {
				continue
			}
			return nil, errors.Wrapf(ErrMissingAttribute, "attribute %q (%s)", a.name, a.kind)
		}
		cv, err := a.coerce(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "attribute %q", a.name)
		}
		normalized[a.name] = cv
	}

	// Per-axis attributes: their length is given by the reference attribute, typically "strides".
	for _, a := range s.attrs {
		if a.lengthOf == "" {
			continue
		}
		v, found := normalized[a.name]
		ref, refFound := normalized[a.lengthOf]
		if !refFound {
			if !found && a.hasFill {
				return nil, errors.Wrapf(ErrMissingAttribute, "attribute %q is needed to default %q", a.lengthOf, a.name)
			}
			continue
		}
		n := ref.Len()
		if !found {
			if a.hasFill {
				fill := make([]int64, n)
				for ii := range fill {
					fill[ii] = a.fill
				}
				normalized[a.name] = attributes.Ints(fill...)
			}
			continue
		}
		if v.Len() != n {
			return nil, errors.Wrapf(ErrInvalidAttributeValue, "attribute %q has %d values, but %q has %d: one per axis is expected",
				a.name, v.Len(), a.lengthOf, n)
		}
	}

	for _, check := range s.checks {
		if err := check(numInputs, normalized); err != nil {
			return nil, err
		}
	}
	return normalized, nil
}

func (s *OpSpec) checkArity(numInputs int) error {
	minInputs, maxInputs := s.MinInputs(), s.MaxInputs()
	if numInputs < minInputs || (maxInputs >= 0 && numInputs > maxInputs) {
		var expected string
		switch {
		case maxInputs < 0:
			expected = "at least " + itoa(minInputs)
		case minInputs == maxInputs:
			expected = itoa(minInputs)
		default:
			expected = "between " + itoa(minInputs) + " and " + itoa(maxInputs)
		}
		return errors.Wrapf(ErrInputArity, "%s takes %s inputs %v, got %d", s.name, expected, s.InputNames(), numInputs)
	}
	return nil
}

// derive appends the derived inputs missing at the end of inputs.
func (s *OpSpec) derive(engine backends.Engine, inputs []backends.Output, attrs attributes.Bag) ([]backends.Output, error) {
	if len(s.derived) == 0 {
		return inputs, nil
	}
	inputs = slices.Clone(inputs)
	for idx := len(inputs); idx < s.MaxInputs(); idx++ {
		fn, found := s.derived[idx]
		if !found {
			break
		}
		output, err := fn(engine, inputs, attrs)
		if err != nil {
			return nil, errors.WithMessagef(err, "deriving input %q", s.inputName(idx))
		}
		inputs = append(inputs, output)
	}
	return inputs, nil
}

func (s *OpSpec) attributeNames() []string {
	names := make([]string, len(s.attrs))
	for ii, a := range s.attrs {
		names[ii] = a.name
	}
	return names
}
