// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/gomlx/opset/pkg/support/xslices"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// describeJSON returns the description of the operations of one opset version as indented JSON.
func describeJSON(version opset.Version, specs []*opset.OpSpec) ([]byte, error) {
	operations := make([]any, len(specs))
	for ii, spec := range specs {
		operations[ii] = describeOperation(spec)
	}
	description, err := structpb.NewStruct(map[string]any{
		"version":    version.String(),
		"operations": operations,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "describing %s", version)
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(description)
}

func describeOperation(spec *opset.OpSpec) map[string]any {
	inputs := make([]any, 0, len(spec.InputNames()))
	for ii, name := range spec.InputNames() {
		inputs = append(inputs, map[string]any{
			"name":     name,
			"optional": ii >= spec.MinInputs(),
			"derived":  spec.IsDerived(ii),
		})
	}
	attrs := make([]any, 0, len(spec.Attributes()))
	for _, a := range spec.Attributes() {
		attr := map[string]any{
			"name":        a.Name(),
			"kind":        a.Kind().String(),
			"required":    a.IsRequired(),
			"constraints": a.Describe(),
		}
		if a.HasDefault() {
			attr["default"] = jsonValue(a.DefaultValue())
		}
		if enum := a.EnumValues(); len(enum) > 0 {
			attr["enum"] = toAnys(enum)
		}
		attrs = append(attrs, attr)
	}
	op := map[string]any{
		"name":       spec.Name(),
		"signature":  spec.String(),
		"inputs":     inputs,
		"variadic":   spec.IsVariadic(),
		"attributes": attrs,
		"outputs":    spec.OutputArity().String(),
	}
	if doc := spec.Description(); doc != "" {
		op["description"] = doc
	}
	return op
}

// jsonValue converts an attribute value to the types accepted by structpb.NewValue.
func jsonValue(v attributes.Value) any {
	switch goValue := v.GoValue().(type) {
	case []int64:
		return toAnys(goValue)
	case []float64:
		return toAnys(goValue)
	case []string:
		return toAnys(goValue)
	default:
		return goValue
	}
}

func toAnys[T any](values []T) []any {
	return xslices.Map(values, func(v T) any { return v })
}
