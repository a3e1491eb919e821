// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package enginetest provides a recording backends.Engine for tests of the factory layer.
//
// It doesn't infer shapes: every output of a constructed node gets the shape of its first input (or a
// float32 scalar), and the number of outputs is given by Engine.NumOutputs.
package enginetest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/pkg/errors"
)

// Call records one call to Engine.Construct.
type Call struct {
	OpType, Version string
	Inputs          []backends.Output
	Attrs           attributes.Bag
}

// Engine records the calls to Construct. It is safe for concurrent use.
type Engine struct {
	// NumOutputs returns the number of outputs of a constructed node. If nil, nodes have one output.
	NumOutputs func(opType string, attrs attributes.Bag) int

	// Err, if set, is returned by Construct (the call is still recorded).
	Err error

	mu        sync.Mutex
	calls     []Call
	constants []*Node
	numNodes  int
}

var _ backends.Engine = (*Engine)(nil)

// New returns a new recording Engine.
func New() *Engine { return &Engine{} }

// Name implements backends.Engine.
func (e *Engine) Name() string { return "enginetest" }

// Description implements backends.Engine.
func (e *Engine) Description() string { return "recording engine for tests" }

// Construct implements backends.Engine.
func (e *Engine) Construct(opType string, version string, inputs []backends.Output, attrs attributes.Bag) (backends.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{OpType: opType, Version: version, Inputs: slices.Clone(inputs), Attrs: attrs.Clone()})
	if e.Err != nil {
		return nil, e.Err
	}
	numOutputs := 1
	if e.NumOutputs != nil {
		numOutputs = e.NumOutputs(opType, attrs)
	}
	shape := shapes.Scalar(dtypes.Float32)
	if len(inputs) > 0 {
		shape = inputs[0].Shape()
	}
	outputs := make([]shapes.Shape, numOutputs)
	for ii := range outputs {
		outputs[ii] = shape
	}
	return e.newNodeLocked(opType, version, inputs, attrs, outputs), nil
}

// Constant implements backends.Engine. Values are not validated.
func (e *Engine) Constant(shape shapes.Shape, flat any) (backends.Node, error) {
	if shape.IsDynamic() {
		return nil, errors.Errorf("constant of dynamic shape %s", shape)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.newNodeLocked("Constant", "", nil, nil, []shapes.Shape{shape})
	n.Value = flat
	e.constants = append(e.constants, n)
	return n, nil
}

// Parameter implements backends.Engine.
func (e *Engine) Parameter(name string, shape shapes.Shape) (backends.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.newNodeLocked("Parameter", "", nil, nil, []shapes.Shape{shape})
	if name != "" {
		n.name = name
	}
	return n, nil
}

// Input returns the output of a new parameter with the given shape, for tests.
func (e *Engine) Input(dtype dtypes.DType, dims ...int) backends.Output {
	node, _ := e.Parameter("", shapes.Make(dtype, dims...))
	return backends.Output{Node: node}
}

// Calls returns the recorded calls to Construct.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}

// NumCalls returns the number of calls to Construct.
func (e *Engine) NumCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// LastCall returns the last call to Construct. It panics if there was none.
func (e *Engine) LastCall() Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		panic("enginetest: no calls to Construct")
	}
	return e.calls[len(e.calls)-1]
}

// Constants returns the constants created so far.
func (e *Engine) Constants() []*Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.constants)
}

func (e *Engine) newNodeLocked(opType, version string, inputs []backends.Output, attrs attributes.Bag, outputs []shapes.Shape) *Node {
	n := &Node{id: e.numNodes, opType: opType, version: version, inputs: slices.Clone(inputs), attrs: attrs.Clone(), outputs: outputs}
	n.name = fmt.Sprintf("%s_%d", opType, n.id)
	e.numNodes++
	return n
}

// Node created by Engine.
type Node struct {
	id              int
	opType, version string
	inputs          []backends.Output
	attrs           attributes.Bag
	outputs         []shapes.Shape
	name            string

	// Value of constants, as given to Engine.Constant.
	Value any
}

var _ backends.Node = (*Node)(nil)

func (n *Node) ID() int { return n.id }
func (n *Node) Type() string { return n.opType }
func (n *Node) Version() string { return n.version }
func (n *Node) Inputs() []backends.Output { return slices.Clone(n.inputs) }
func (n *Node) Attributes() attributes.Bag { return n.attrs }
func (n *Node) NumOutputs() int { return len(n.outputs) }
func (n *Node) OutputShape(index int) shapes.Shape { return n.outputs[index] }
func (n *Node) Name() string { return n.name }
func (n *Node) SetName(name string) { n.name = name }
