// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
)

// Node is the engine-owned handle to one operation in the graph.
//
// Nodes are immutable once constructed, except for their friendly name.
type Node interface {
	// ID is unique per engine instance.
	ID() int

	// Type is the operation type, e.g. "Convolution".
	Type() string

	// Version is the opset version the node was constructed for, e.g. "opset1".
	Version() string

	// Inputs the node was constructed with, in order.
	Inputs() []Output

	// Attributes the node was constructed with. The returned Bag must not be modified.
	Attributes() attributes.Bag

	// NumOutputs returns the number of outputs of the node.
	NumOutputs() int

	// OutputShape returns the shape of the output at the given index.
	OutputShape(index int) shapes.Shape

	// Name returns the friendly name of the node.
	Name() string

	// SetName sets the friendly name of the node.
	SetName(name string)
}

// Output refers to one output of a Node. It's what is used as input to other nodes.
type Output struct {
	Node  Node
	Index int
}

// Shape of the output.
func (o Output) Shape() shapes.Shape { return o.Node.OutputShape(o.Index) }

// DType of the output.
func (o Output) DType() dtypes.DType { return o.Node.OutputShape(o.Index).DType }

// Ok returns whether the output refers to an existing node output.
func (o Output) Ok() bool {
	return o.Node != nil && o.Index >= 0 && o.Index < o.Node.NumOutputs()
}

// String implements fmt.Stringer.
func (o Output) String() string {
	if o.Node == nil {
		return "<nil output>"
	}
	if o.Node.NumOutputs() == 1 {
		return fmt.Sprintf("%s -> %s", o.Node.Name(), o.Shape())
	}
	return fmt.Sprintf("%s[%d] -> %s", o.Node.Name(), o.Index, o.Shape())
}

// OutputsOf returns all the outputs of a node, in order.
func OutputsOf(node Node) []Output {
	outputs := make([]Output, node.NumOutputs())
	for ii := range outputs {
		outputs[ii] = Output{Node: node, Index: ii}
	}
	return outputs
}
