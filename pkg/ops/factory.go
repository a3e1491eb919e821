// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ops provides one typed method per operation, to create nodes on an engine.
//
// A Factory is bound to an engine and to one opset version. Its methods accept as inputs any value AsNode
// accepts (node outputs, single-output nodes, Go scalars and slices), convert them, build the attributes
// and delegate to opset.NodeFactory, which validates the request. Example:
//
//	f := must.M1(ops.New(engine, opset.Opset3))
//	x := must.M1(f.Parameter("x", dtypes.Float32, 2, 3))
//	y := must.M1(f.Add(x, float32(1)))
//	z := must.M1(f.Convolution(y, filters).Strides(2, 2).AutoPad("same_upper").Done())
//
// The legacy operations (Dot, Slice, ReplaceSlice, ArgMax, ArgMin, Quantize, Dequantize, QuantizedConvolution,
// QuantizedDot, ScaleShift, Gemm and GetOutputElement) are always created from opset0, and Reverse from
// opset1, whatever the version of the Factory.
//
// Optional inputs are given as nil to be omitted. Only trailing optional inputs can be omitted.
package ops

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/gomlx/opset/pkg/support/xslices"
	"github.com/pkg/errors"
)

// Factory creates nodes on an engine with the operations of one opset version. It is safe for concurrent
// use if the engine is.
type Factory struct {
	engine backends.Engine
	nodes  *opset.NodeFactory

	// pinned holds the node factories of the versions some operations are always created from.
	pinned map[opset.Version]*opset.NodeFactory
}

// New returns a Factory for the given version of the default registry. The empty version is the latest.
func New(engine backends.Engine, version opset.Version) (*Factory, error) {
	return NewWithRegistry(engine, opset.Default(), version)
}

// NewLatest returns a Factory for the latest version of the default registry.
func NewLatest(engine backends.Engine) (*Factory, error) {
	return New(engine, opset.Latest())
}

// NewWithRegistry returns a Factory for the given version of registry.
func NewWithRegistry(engine backends.Engine, registry *opset.Registry, version opset.Version) (*Factory, error) {
	view, err := registry.Resolve(version)
	if err != nil {
		return nil, err
	}
	f := &Factory{
		engine: engine,
		nodes:  opset.NewNodeFactory(engine, view),
		pinned: make(map[opset.Version]*opset.NodeFactory),
	}
	for _, pinned := range []opset.Version{opset.Opset0, opset.Opset1} {
		if pinnedView, err := registry.Resolve(pinned); err == nil {
			f.pinned[pinned] = opset.NewNodeFactory(engine, pinnedView)
		}
	}
	return f, nil
}

// Engine where nodes are created.
func (f *Factory) Engine() backends.Engine { return f.engine }

// Version of the operations created by the factory.
func (f *Factory) Version() opset.Version { return f.nodes.Version() }

// NodeFactory used to create the nodes.
func (f *Factory) NodeFactory() *opset.NodeFactory { return f.nodes }

// Create creates the operation name with the given attributes and inputs, and returns all its outputs.
// It can be used for operations or attributes without a typed method.
func (f *Factory) Create(name string, attrs attributes.Bag, inputs ...any) ([]backends.Output, error) {
	return f.createWith(f.nodes, name, attrs, inputs)
}

// Parameter creates an input of the graph. Use shapes.DynamicDim for unknown dimensions.
func (f *Factory) Parameter(name string, dtype dtypes.DType, dims ...int) (backends.Output, error) {
	node, err := f.engine.Parameter(name, shapes.Make(dtype, dims...))
	if err != nil {
		return backends.Output{}, err
	}
	return backends.Output{Node: node}, nil
}

// Constant creates a constant, see the package function Constant.
func (f *Factory) Constant(value any) (backends.Output, error) { return Constant(f.engine, value) }

// ConstantWithType creates a constant of the given element type, see the package function ConstantWithType.
func (f *Factory) ConstantWithType(dtype dtypes.DType, value any) (backends.Output, error) {
	return ConstantWithType(f.engine, dtype, value)
}

// AsNode converts x, see the package function AsNode.
func (f *Factory) AsNode(x any) (backends.Output, error) { return AsNode(f.engine, x) }

// AsNodes converts xs, see the package function AsNodes.
func (f *Factory) AsNodes(xs ...any) ([]backends.Output, error) { return AsNodes(f.engine, xs...) }

// Result marks x as an output of the graph.
func (f *Factory) Result(x any) (backends.Output, error) { return f.create("Result", nil, x) }

// create an operation with a single output.
func (f *Factory) create(name string, attrs attributes.Bag, inputs ...any) (backends.Output, error) {
	outputs, err := f.createWith(f.nodes, name, attrs, inputs)
	if err != nil {
		return backends.Output{}, err
	}
	return outputs[0], nil
}

// createPinned creates an operation with a single output from the given version.
func (f *Factory) createPinned(version opset.Version, name string, attrs attributes.Bag, inputs ...any) (backends.Output, error) {
	nodes, found := f.pinned[version]
	if !found {
		return backends.Output{}, errors.Wrapf(opset.ErrUnknownOpset, "%s requires %s, which is not registered", name, version)
	}
	outputs, err := f.createWith(nodes, name, attrs, inputs)
	if err != nil {
		return backends.Output{}, err
	}
	return outputs[0], nil
}

// createWith validates the request, converts the inputs and creates the operation.
//
// Trailing nil inputs are omitted optional inputs. The number of inputs and the attributes are validated
// before any literal input is converted to a constant, so a rejected request leaves the graph unchanged.
func (f *Factory) createWith(nodes *opset.NodeFactory, name string, attrs attributes.Bag, inputs []any) ([]backends.Output, error) {
	for len(inputs) > 0 && inputs[len(inputs)-1] == nil {
		inputs = inputs[:len(inputs)-1]
	}
	spec, err := nodes.View().Lookup(name)
	if err != nil {
		return nil, err
	}
	if _, err := spec.Validate(len(inputs), attrs); err != nil {
		return nil, errors.WithMessagef(err, "%s (%s)", name, nodes.Version())
	}
	outputs, err := AsNodes(f.engine, inputs...)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return nodes.CreateOutputs(name, outputs, attrs)
}

// intsAttr converts a list of ints to an attribute value.
func intsAttr(values []int) attributes.Value {
	return attributes.Ints(xslices.Map(values, func(v int) int64 { return int64(v) })...)
}
