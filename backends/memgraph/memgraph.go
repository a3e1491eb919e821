// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package memgraph implements a reference in-memory graph engine.
//
// It keeps the nodes in construction order (a natural DAG ordering), infers output shapes with
// backends/shapeinference, and keeps the values of constants, so shape inference can use constant
// inputs like axes or target shapes. It doesn't execute anything.
//
// It registers itself as "memgraph" in package backends. Configuration options (comma separated):
//
//   - "strict": operations without shape inference fail, instead of producing one output of unknown rank.
package memgraph

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// EngineName used to register the engine.
const EngineName = "memgraph"

func init() {
	backends.Register(EngineName, New)
}

// Engine is the in-memory graph. It is safe for concurrent use.
type Engine struct {
	id     uuid.UUID
	strict bool

	mu sync.Mutex
	// nodes are only created when their inputs have already been created: this is a natural DAG ordering.
	nodes []*Node
}

// Compile-time check.
var _ backends.Engine = (*Engine)(nil)

// New returns a new Engine for the given configuration, see package documentation.
func New(config string) (backends.Engine, error) {
	e := NewEngine()
	for _, option := range strings.Split(config, ",") {
		switch strings.TrimSpace(option) {
		case "":
		case "strict":
			e.strict = true
		default:
			return nil, errors.Errorf("unknown %s configuration option %q", EngineName, option)
		}
	}
	return e, nil
}

// NewEngine returns a new Engine with default configuration.
func NewEngine() *Engine {
	e := &Engine{id: uuid.New()}
	klog.V(1).Infof("created %s engine %s", EngineName, e.id)
	return e
}

// Name implements backends.Engine.
func (e *Engine) Name() string { return EngineName }

// Description implements backends.Engine.
func (e *Engine) Description() string {
	return fmt.Sprintf("in-memory reference graph engine (graph %s)", e.id)
}

// ID of the graph held by the engine.
func (e *Engine) ID() uuid.UUID { return e.id }

// Node in the memgraph. It implements backends.Node.
type Node struct {
	engine  *Engine
	id      int
	opType  string
	version string
	inputs  []backends.Output
	attrs   attributes.Bag
	outputs []shapes.Shape

	// value is the flat slice of values, for constants.
	value any

	nameMu sync.Mutex
	name   string
}

// Compile-time check.
var _ backends.Node = (*Node)(nil)

// ID implements backends.Node.
func (n *Node) ID() int { return n.id }

// Type implements backends.Node.
func (n *Node) Type() string { return n.opType }

// Version implements backends.Node.
func (n *Node) Version() string { return n.version }

// Inputs implements backends.Node.
func (n *Node) Inputs() []backends.Output { return slices.Clone(n.inputs) }

// Attributes implements backends.Node.
func (n *Node) Attributes() attributes.Bag { return n.attrs }

// NumOutputs implements backends.Node.
func (n *Node) NumOutputs() int { return len(n.outputs) }

// OutputShape implements backends.Node.
func (n *Node) OutputShape(index int) shapes.Shape {
	if index < 0 || index >= len(n.outputs) {
		return shapes.Invalid()
	}
	return n.outputs[index]
}

// Name implements backends.Node.
func (n *Node) Name() string {
	n.nameMu.Lock()
	defer n.nameMu.Unlock()
	return n.name
}

// SetName implements backends.Node.
func (n *Node) SetName(name string) {
	n.nameMu.Lock()
	defer n.nameMu.Unlock()
	n.name = name
}

// Value returns the flat values of a constant node, or nil for other nodes.
func (n *Node) Value() any { return n.value }

// String implements fmt.Stringer.
func (n *Node) String() string {
	parts := make([]string, len(n.inputs))
	for ii, input := range n.inputs {
		if input.Node.NumOutputs() == 1 {
			parts[ii] = input.Node.Name()
		} else {
			parts[ii] = fmt.Sprintf("%s[%d]", input.Node.Name(), input.Index)
		}
	}
	outputs := make([]string, len(n.outputs))
	for ii, s := range n.outputs {
		outputs[ii] = s.String()
	}
	s := fmt.Sprintf("%s = %s(%s)", n.Name(), n.opType, strings.Join(parts, ", "))
	if len(n.attrs) > 0 {
		s += " " + n.attrs.String()
	}
	return s + " -> " + strings.Join(outputs, ", ")
}

// checkInputs validates that the inputs are outputs of nodes of this engine.
func (e *Engine) checkInputs(opType string, inputs []backends.Output) error {
	for ii, input := range inputs {
		node, ok := input.Node.(*Node)
		if !ok || node == nil {
			return errors.Errorf("%s: input #%d is not a %s node (%T)", opType, ii, EngineName, input.Node)
		}
		if node.engine != e {
			return errors.Errorf("%s: input #%d (%s) belongs to a different graph", opType, ii, node.Name())
		}
		if input.Index < 0 || input.Index >= len(node.outputs) {
			return errors.Errorf("%s: input #%d refers to output %d of %s, which has %d outputs",
				opType, ii, input.Index, node.Name(), len(node.outputs))
		}
	}
	return nil
}

// newNode adds a new node to the graph. The node is complete before it is visible to other goroutines.
// If name is empty, it is named after its operation and id. value is only set for constants.
func (e *Engine) newNode(opType, version string, inputs []backends.Output, attrs attributes.Bag,
	outputs []shapes.Shape, name string, value any) *Node {
	n := &Node{
		engine:  e,
		opType:  opType,
		version: version,
		inputs:  slices.Clone(inputs),
		attrs:   attrs.Clone(),
		outputs: outputs,
		value:   value,
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	n.id = len(e.nodes)
	n.name = name
	if n.name == "" {
		n.name = fmt.Sprintf("%s_%d", opType, n.id)
	}
	e.nodes = append(e.nodes, n)
	return n
}

// Construct implements backends.Engine.
func (e *Engine) Construct(opType string, version string, inputs []backends.Output, attrs attributes.Bag) (backends.Node, error) {
	if err := e.checkInputs(opType, inputs); err != nil {
		return nil, err
	}
	ctx := &inferContext{opType: opType, version: version, inputs: inputs, attrs: attrs}
	var outputs []shapes.Shape
	if fn, found := inferenceTable[opType]; found {
		var err error
		outputs, err = fn(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		if e.strict {
			return nil, errors.Errorf("%s: no shape inference for operation %s (%s)", EngineName, opType, version)
		}
		outputs = []shapes.Shape{ctx.unknown()}
	}
	n := e.newNode(opType, version, inputs, attrs, outputs, "", nil)
	klog.V(2).Infof("%s: %s", EngineName, n)
	return n, nil
}

// Constant implements backends.Engine.
func (e *Engine) Constant(shape shapes.Shape, flat any) (backends.Node, error) {
	if !shape.Ok() || shape.IsDynamic() {
		return nil, errors.Errorf("Constant requires a valid static shape, got %s", shape)
	}
	v := reflect.ValueOf(flat)
	if v.Kind() != reflect.Slice {
		return nil, errors.Errorf("Constant requires a flat slice of values, got %T", flat)
	}
	if v.Type().Elem() != shape.DType.GoType() {
		return nil, errors.Errorf("Constant of shape %s requires a slice of %v, got %T", shape, shape.DType.GoType(), flat)
	}
	if v.Len() != shape.Size() {
		return nil, errors.Errorf("Constant of shape %s requires %d values, got %d", shape, shape.Size(), v.Len())
	}
	copied := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(copied, v)
	attrs := attributes.Bag{
		"element_type": attributes.ElementType(shape.DType),
		"shape":        attributes.Ints(toInt64s(shape.Dimensions)...),
	}
	return e.newNode("Constant", "", nil, attrs, []shapes.Shape{shape.Clone()}, "", copied.Interface()), nil
}

// Parameter implements backends.Engine.
func (e *Engine) Parameter(name string, shape shapes.Shape) (backends.Node, error) {
	if !shape.Ok() {
		return nil, errors.Errorf("Parameter %q requires a valid shape, got %s", name, shape)
	}
	attrs := attributes.Bag{"element_type": attributes.ElementType(shape.DType)}
	if !shape.DynamicRank {
		attrs["shape"] = attributes.Ints(toInt64s(shape.Dimensions)...)
	}
	return e.newNode("Parameter", "", nil, attrs, []shapes.Shape{shape.Clone()}, name, nil), nil
}

// Nodes returns the nodes of the graph, in construction order.
func (e *Engine) Nodes() []*Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.nodes)
}

// NumNodes returns the number of nodes in the graph.
func (e *Engine) NumNodes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// Summary returns a one-line description of the graph: number of nodes, of constants and their memory.
func (e *Engine) Summary() string {
	nodes := e.Nodes()
	var numConstants int
	var memory uintptr
	for _, n := range nodes {
		if n.opType == "Constant" {
			numConstants++
			memory += n.outputs[0].Memory()
		}
	}
	return fmt.Sprintf("graph %s: %s nodes, %d constants using %s", e.id, humanize.Comma(int64(len(nodes))),
		numConstants, humanize.Bytes(uint64(memory)))
}

func toInt64s(values []int) []int64 {
	out := make([]int64, len(values))
	for ii, v := range values {
		out[ii] = int64(v)
	}
	return out
}
