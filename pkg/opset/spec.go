// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/pkg/errors"
)

// AttrSpec describes one attribute of an operation: its name, kind, default and accepted values.
//
// It is created with one of IntAttr, FloatAttr, StringAttr, BoolAttr, IntsAttr, FloatsAttr, StringsAttr
// or TypeAttr, and configured by chaining its methods, e.g.:
//
//	StringAttr("auto_pad").Enum("EXPLICIT", "SAME_UPPER", "SAME_LOWER", "VALID").Default("EXPLICIT")
//
// An attribute without Default, PerAxis or Optional is required.
type AttrSpec struct {
	name         string
	kind         attributes.Kind
	defaultValue attributes.Value
	optional     bool
	enum         []string
	types        []dtypes.DType

	// lengthOf is the name of the list attribute whose length this one must match.
	lengthOf string
	fill     int64
	hasFill  bool

	positive, nonNegative bool
}

// IntAttr returns the spec of an integer attribute.
func IntAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindInt} }

// FloatAttr returns the spec of a float attribute. Integer values are accepted and converted.
func FloatAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindFloat} }

// StringAttr returns the spec of a string attribute.
func StringAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindString} }

// BoolAttr returns the spec of a boolean attribute. The integers 0 and 1 are accepted and converted.
func BoolAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindBool} }

// IntsAttr returns the spec of a list of integers attribute.
func IntsAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindInts} }

// FloatsAttr returns the spec of a list of floats attribute. Lists of integers are accepted and converted.
func FloatsAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindFloats} }

// StringsAttr returns the spec of a list of strings attribute.
func StringsAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindStrings} }

// TypeAttr returns the spec of an element type attribute. Element type names (e.g. "i64", "f32") are
// accepted and converted.
func TypeAttr(name string) AttrSpec { return AttrSpec{name: name, kind: attributes.KindElementType} }

// Default sets the value used when the attribute is absent. value is anything accepted by attributes.FromAny,
// and it is validated (and normalized) when the attribute is added to an OpSpec.
func (a AttrSpec) Default(value any) AttrSpec {
	v, err := attributes.FromAny(value)
	if err != nil {
		exceptions.Panicf("attribute %q: invalid default value: %+v", a.name, err)
	}
	a.defaultValue = v
	return a
}

// Enum restricts the values of a string (or list of strings) attribute. Values are matched case-insensitively,
// and normalized to the case given here.
func (a AttrSpec) Enum(values ...string) AttrSpec {
	if a.kind != attributes.KindString && a.kind != attributes.KindStrings {
		exceptions.Panicf("attribute %q: Enum() requires a string attribute, got %s", a.name, a.kind)
	}
	a.enum = slices.Clone(values)
	return a
}

// Types restricts the values of an element type attribute.
func (a AttrSpec) Types(types ...dtypes.DType) AttrSpec {
	if a.kind != attributes.KindElementType {
		exceptions.Panicf("attribute %q: Types() requires an element type attribute, got %s", a.name, a.kind)
	}
	a.types = slices.Clone(types)
	return a
}

// PerAxis makes a list of integers attribute have one value per axis of the reference attribute ref
// (typically "strides"): when absent it is filled with fill, and when present its length must match.
func (a AttrSpec) PerAxis(fill int64, ref string) AttrSpec {
	a = a.SameLength(ref)
	a.fill = fill
	a.hasFill = true
	return a
}

// SameLength requires a list attribute to have the same length as the reference attribute ref.
func (a AttrSpec) SameLength(ref string) AttrSpec {
	if !a.kind.IsList() {
		exceptions.Panicf("attribute %q: PerAxis()/SameLength() require a list attribute, got %s", a.name, a.kind)
	}
	a.lengthOf = ref
	return a
}

// Positive requires integer values (or all values of a list of integers) to be > 0.
func (a AttrSpec) Positive() AttrSpec {
	a.positive = true
	return a
}

// NonNegative requires integer values (or all values of a list of integers) to be >= 0.
func (a AttrSpec) NonNegative() AttrSpec {
	a.nonNegative = true
	return a
}

// Optional allows the attribute to be absent, without a default. The engine decides what to do then.
func (a AttrSpec) Optional() AttrSpec {
	a.optional = true
	return a
}

// Name of the attribute.
func (a AttrSpec) Name() string { return a.name }

// Kind of the attribute.
func (a AttrSpec) Kind() attributes.Kind { return a.kind }

// HasDefault returns whether the attribute has a literal default.
func (a AttrSpec) HasDefault() bool { return a.defaultValue.IsValid() }

// DefaultValue returns the literal default, or an invalid Value if there is none.
func (a AttrSpec) DefaultValue() attributes.Value { return a.defaultValue }

// IsRequired returns whether the attribute must be given by the caller.
func (a AttrSpec) IsRequired() bool { return !a.optional && !a.hasFill && !a.HasDefault() }

// EnumValues returns the accepted values of a string attribute, or nil if any value is accepted.
func (a AttrSpec) EnumValues() []string { return slices.Clone(a.enum) }

// AllowedTypes returns the accepted values of an element type attribute, or nil if any is accepted.
func (a AttrSpec) AllowedTypes() []dtypes.DType { return slices.Clone(a.types) }

// Describe returns a short human-readable description of the constraints of the attribute.
func (a AttrSpec) Describe() string {
	var parts []string
	switch {
	case a.HasDefault():
		parts = append(parts, "default "+a.defaultValue.String())
	case a.hasFill:
		parts = append(parts, fmt.Sprintf("default %d per axis of %s", a.fill, a.lengthOf))
	case a.optional:
		parts = append(parts, "optional")
	default:
		parts = append(parts, "required")
	}
	if a.lengthOf != "" && !a.hasFill {
		parts = append(parts, "one per axis of "+a.lengthOf)
	}
	if len(a.enum) > 0 {
		parts = append(parts, "one of "+strings.Join(a.enum, "|"))
	}
	if len(a.types) > 0 {
		names := make([]string, len(a.types))
		for ii, dtype := range a.types {
			names[ii] = shapes.ElementTypeName(dtype)
		}
		parts = append(parts, "one of "+strings.Join(names, "|"))
	}
	if a.positive {
		parts = append(parts, "> 0")
	} else if a.nonNegative {
		parts = append(parts, ">= 0")
	}
	return strings.Join(parts, ", ")
}

// coerce converts v to the kind of the attribute and validates it.
func (a AttrSpec) coerce(v attributes.Value) (attributes.Value, error) {
	var out attributes.Value
	switch a.kind {
	case attributes.KindInt, attributes.KindInts:
		if v.Kind() == a.kind {
			out = v
		}
	case attributes.KindFloat:
		switch v.Kind() {
		case attributes.KindFloat:
			out = v
		case attributes.KindInt:
			out = attributes.Float(float64(v.Int()))
		}
	case attributes.KindFloats:
		switch v.Kind() {
		case attributes.KindFloats:
			out = v
		case attributes.KindInts:
			ints := v.Ints()
			floats := make([]float64, len(ints))
			for ii, i := range ints {
				floats[ii] = float64(i)
			}
			out = attributes.Floats(floats...)
		}
	case attributes.KindBool:
		switch {
		case v.Kind() == attributes.KindBool:
			out = v
		case v.Kind() == attributes.KindInt && (v.Int() == 0 || v.Int() == 1):
			out = attributes.Bool(v.Int() == 1)
		}
	case attributes.KindString:
		if v.Kind() == attributes.KindString {
			s, err := a.matchEnum(v.Str())
			if err != nil {
				return attributes.Value{}, err
			}
			out = attributes.String(s)
		}
	case attributes.KindStrings:
		if v.Kind() == attributes.KindStrings {
			values := v.Strings()
			for ii, s := range values {
				var err error
				values[ii], err = a.matchEnum(s)
				if err != nil {
					return attributes.Value{}, err
				}
			}
			out = attributes.Strings(values...)
		}
	case attributes.KindElementType:
		switch v.Kind() {
		case attributes.KindElementType:
			out = v
		case attributes.KindString:
			dtype, err := shapes.ParseElementType(v.Str())
			if err != nil {
				return attributes.Value{}, errors.Wrapf(ErrInvalidAttributeValue, "%v", err)
			}
			out = attributes.ElementType(dtype)
		}
		if out.IsValid() && len(a.types) > 0 && slices.Index(a.types, out.ElementType()) == -1 {
			return attributes.Value{}, errors.Wrapf(ErrInvalidAttributeValue, "element type %s is not one of %s",
				shapes.ElementTypeName(out.ElementType()), a.Describe())
		}
	}
	if !out.IsValid() {
		return attributes.Value{}, errors.Wrapf(ErrInvalidAttributeValue, "expected %s, got %s %s", a.kind, v.Kind(), v)
	}
	if a.positive || a.nonNegative {
		var ints []int64
		switch out.Kind() {
		case attributes.KindInt:
			ints = []int64{out.Int()}
		case attributes.KindInts:
			ints = out.Ints()
		}
		for _, i := range ints {
			if (a.positive && i <= 0) || (a.nonNegative && i < 0) {
				return attributes.Value{}, errors.Wrapf(ErrInvalidAttributeValue, "value %s must be %s", out, a.Describe())
			}
		}
	}
	return out, nil
}

func (a AttrSpec) matchEnum(s string) (string, error) {
	if len(a.enum) == 0 {
		return s, nil
	}
	for _, value := range a.enum {
		if strings.EqualFold(value, s) {
			return value, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidAttributeValue, "%q is not one of %s", s, strings.Join(a.enum, "|"))
}

// OutputArity defines the number of outputs of an operation: Fixed, FromAttr or Dynamic.
type OutputArity struct {
	fixed   int
	attr    string
	dynamic bool
}

// Fixed number of outputs.
func Fixed(n int) OutputArity { return OutputArity{fixed: n} }

// FromAttr takes the number of outputs from the value of an integer attribute, e.g. "num_splits".
func FromAttr(name string) OutputArity { return OutputArity{attr: name} }

// Dynamic number of outputs, only known by the engine (e.g. VariadicSplit).
func Dynamic() OutputArity { return OutputArity{dynamic: true} }

// Count returns the number of outputs for the given normalized attributes. It returns false if the number
// can't be known before construction.
func (o OutputArity) Count(attrs attributes.Bag) (int, bool) {
	switch {
	case o.dynamic:
		return 0, false
	case o.attr != "":
		v, found := attrs[o.attr]
		if !found || v.Kind() != attributes.KindInt {
			return 0, false
		}
		return int(v.Int()), true
	default:
		return o.fixed, true
	}
}

// String implements fmt.Stringer.
func (o OutputArity) String() string {
	switch {
	case o.dynamic:
		return "dynamic"
	case o.attr != "":
		return "=" + o.attr
	default:
		return fmt.Sprintf("%d", o.fixed)
	}
}

// CheckFn validates a request after its attributes were normalized, given only the number of inputs.
// It should return errors wrapping ErrInvalidAttributeValue (see Invalidf).
type CheckFn func(numInputs int, attrs attributes.Bag) error

// InputsCheckFn validates a request that depends on the input nodes themselves. It runs after all the
// CheckFn of the operation.
type InputsCheckFn func(inputs []backends.Output, attrs attributes.Bag) error

// DeriveFn computes a missing optional input from the already validated inputs and attributes, typically
// by creating a constant on the engine.
type DeriveFn func(engine backends.Engine, inputs []backends.Output, attrs attributes.Bag) (backends.Output, error)

// Invalidf returns an error wrapping ErrInvalidAttributeValue.
func Invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidAttributeValue, format, args...)
}

// OpSpec is the contract of one operation in one opset: its inputs, attributes and outputs.
//
// It is built by chaining methods on Op, and it must not be changed after it is registered.
type OpSpec struct {
	name        string
	inputs      []string
	optional    []string
	variadic    bool
	variadicMin int
	attrs       []AttrSpec
	outputs     OutputArity
	checks      []CheckFn
	inputChecks []InputsCheckFn
	derived     map[int]DeriveFn
	doc         string
}

// Op starts the spec of the operation name. By default, it takes no inputs, no attributes and has one output.
func Op(name string) *OpSpec {
	return &OpSpec{name: name, outputs: Fixed(1)}
}

// Inputs appends required inputs, in order.
func (s *OpSpec) Inputs(names ...string) *OpSpec {
	if s.variadic || len(s.optional) > 0 {
		exceptions.Panicf("%s: required inputs must be declared before optional or variadic inputs", s.name)
	}
	s.inputs = append(s.inputs, names...)
	return s
}

// Optional appends optional inputs, in order. An optional input can only be given if all the ones before
// it were given.
func (s *OpSpec) Optional(names ...string) *OpSpec {
	if s.variadic {
		exceptions.Panicf("%s: optional inputs can't be combined with variadic inputs", s.name)
	}
	s.optional = append(s.optional, names...)
	return s
}

// Variadic makes the operation take any number >= minCount of inputs named name (e.g. Concat).
func (s *OpSpec) Variadic(name string, minCount int) *OpSpec {
	if len(s.inputs) > 0 || len(s.optional) > 0 {
		exceptions.Panicf("%s: variadic operations take no other inputs", s.name)
	}
	s.inputs = []string{name}
	s.variadic = true
	s.variadicMin = minCount
	return s
}

// Attrs appends attributes. Defaults are validated and normalized here, and it panics on invalid ones.
func (s *OpSpec) Attrs(attrs ...AttrSpec) *OpSpec {
	for _, a := range attrs {
		if s.attrIndex(a.name) != -1 {
			exceptions.Panicf("%s: attribute %q declared twice", s.name, a.name)
		}
		if a.HasDefault() {
			v, err := a.coerce(a.defaultValue)
			if err != nil {
				exceptions.Panicf("%s: attribute %q has invalid default: %+v", s.name, a.name, err)
			}
			a.defaultValue = v
		}
		s.attrs = append(s.attrs, a)
	}
	return s
}

// Outputs sets the number of outputs.
func (s *OpSpec) Outputs(arity OutputArity) *OpSpec {
	s.outputs = arity
	return s
}

// Check adds a validation of the request, run after the attributes are normalized.
func (s *OpSpec) Check(fn CheckFn) *OpSpec {
	s.checks = append(s.checks, fn)
	return s
}

// CheckInputs adds a validation that reads the input nodes. It only runs once the inputs exist.
func (s *OpSpec) CheckInputs(fn InputsCheckFn) *OpSpec {
	s.inputChecks = append(s.inputChecks, fn)
	return s
}

// Derive sets how to compute the optional input name when it is not given.
func (s *OpSpec) Derive(name string, fn DeriveFn) *OpSpec {
	idx := slices.Index(s.optional, name)
	if idx == -1 {
		exceptions.Panicf("%s: only optional inputs can be derived, %q is not one", s.name, name)
	}
	if s.derived == nil {
		s.derived = make(map[int]DeriveFn)
	}
	s.derived[len(s.inputs)+idx] = fn
	return s
}

// Doc sets a one-line description of the operation.
func (s *OpSpec) Doc(doc string) *OpSpec {
	s.doc = doc
	return s
}

// clone returns a copy that doesn't share slices with s, so the registered spec can't be changed by
// its builder.
func (s *OpSpec) clone() *OpSpec {
	c := *s
	c.inputs = slices.Clone(s.inputs)
	c.optional = slices.Clone(s.optional)
	c.attrs = slices.Clone(s.attrs)
	c.checks = slices.Clone(s.checks)
	c.inputChecks = slices.Clone(s.inputChecks)
	if s.derived != nil {
		c.derived = make(map[int]DeriveFn, len(s.derived))
		for k, v := range s.derived {
			c.derived[k] = v
		}
	}
	return &c
}

// Name of the operation.
func (s *OpSpec) Name() string { return s.name }

// Description of the operation, if set.
func (s *OpSpec) Description() string { return s.doc }

// InputNames returns the names of the required inputs followed by the optional ones.
func (s *OpSpec) InputNames() []string { return append(slices.Clone(s.inputs), s.optional...) }

// MinInputs returns the minimum number of inputs.
func (s *OpSpec) MinInputs() int {
	if s.variadic {
		return s.variadicMin
	}
	return len(s.inputs)
}

// MaxInputs returns the maximum number of inputs, or -1 if unbounded.
func (s *OpSpec) MaxInputs() int {
	if s.variadic {
		return -1
	}
	return len(s.inputs) + len(s.optional)
}

// IsVariadic returns whether the operation takes an unbounded number of inputs.
func (s *OpSpec) IsVariadic() bool { return s.variadic }

// IsDerived returns whether the input at the given index is computed when absent.
func (s *OpSpec) IsDerived(index int) bool {
	_, found := s.derived[index]
	return found
}

// Attributes returns the attribute specs, in declaration order.
func (s *OpSpec) Attributes() []AttrSpec { return slices.Clone(s.attrs) }

// Attribute returns the spec of the named attribute.
func (s *OpSpec) Attribute(name string) (AttrSpec, bool) {
	idx := s.attrIndex(name)
	if idx == -1 {
		return AttrSpec{}, false
	}
	return s.attrs[idx], true
}

// OutputArity returns the number of outputs of the operation.
func (s *OpSpec) OutputArity() OutputArity { return s.outputs }

// String implements fmt.Stringer, e.g. "Add(arg0, arg1) -> 1".
func (s *OpSpec) String() string {
	parts := slices.Clone(s.inputs)
	if s.variadic {
		parts[0] += "..."
	}
	for _, name := range s.optional {
		parts = append(parts, "["+name+"]")
	}
	return fmt.Sprintf("%s(%s) -> %s", s.name, strings.Join(parts, ", "), s.outputs)
}

func (s *OpSpec) attrIndex(name string) int {
	return slices.IndexFunc(s.attrs, func(a AttrSpec) bool { return a.name == name })
}

func (s *OpSpec) inputName(index int) string {
	switch {
	case s.variadic:
		return fmt.Sprintf("%s[%d]", s.inputs[0], index)
	case index < len(s.inputs):
		return s.inputs[index]
	case index-len(s.inputs) < len(s.optional):
		return s.optional[index-len(s.inputs)]
	default:
		return fmt.Sprintf("#%d", index)
	}
}
