// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package memgraph

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func output(node backends.Node, err error) backends.Output {
	if err != nil {
		panic(err)
	}
	return backends.Output{Node: node}
}

func parameter(e *Engine, dtype dtypes.DType, dims ...int) backends.Output {
	return output(e.Parameter("", shapes.Make(dtype, dims...)))
}

func constantInt64(e *Engine, values ...int64) backends.Output {
	return output(e.Constant(shapes.Make(dtypes.Int64, len(values)), values))
}

func scalarInt64(e *Engine, value int64) backends.Output {
	return output(e.Constant(shapes.Scalar(dtypes.Int64), []int64{value}))
}

func TestNew(t *testing.T) {
	e, err := New("strict")
	require.NoError(t, err)
	require.True(t, e.(*Engine).strict)
	_, err = New("fast")
	require.Error(t, err)

	e, err = backends.NewWithConfig("memgraph:strict")
	require.NoError(t, err)
	require.Equal(t, EngineName, e.Name())
	require.Contains(t, backends.List(), EngineName)
}

func TestConstantAndParameter(t *testing.T) {
	e := NewEngine()
	node, err := e.Constant(shapes.Make(dtypes.Float32, 2, 2), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, "Constant", node.Type())
	require.Equal(t, []float32{1, 2, 3, 4}, node.(*Node).Value())
	require.Equal(t, []int64{2, 2}, node.Attributes()["shape"].Ints())

	_, err = e.Constant(shapes.Make(dtypes.Float32, 2), []float64{1, 2})
	require.Error(t, err, "wrong Go type")
	_, err = e.Constant(shapes.Make(dtypes.Float32, 3), []float32{1, 2})
	require.Error(t, err, "wrong number of values")
	_, err = e.Constant(shapes.Make(dtypes.Float32, shapes.DynamicDim), []float32{})
	require.Error(t, err, "dynamic shape")
	_, err = e.Constant(shapes.Make(dtypes.Float32, 1), float32(1))
	require.Error(t, err, "not a slice")

	node, err = e.Parameter("x", shapes.MakeDynamicRank(dtypes.Int32))
	require.NoError(t, err)
	require.Equal(t, "x", node.Name())
	require.False(t, node.Attributes().Has("shape"))
	_, err = e.Parameter("y", shapes.Invalid())
	require.Error(t, err)

	require.Equal(t, 2, e.NumNodes())
	require.Contains(t, e.Summary(), "2 nodes, 1 constants using 16 B")
}

func TestConstruct(t *testing.T) {
	e := NewEngine()
	x := parameter(e, dtypes.Float32, 2, 3)
	node, err := e.Construct("Add", "opset1", []backends.Output{x, parameter(e, dtypes.Float32, 3)}, attributes.Bag{
		"auto_broadcast": attributes.String("NUMPY"),
	})
	require.NoError(t, err)
	require.True(t, shapes.Make(dtypes.Float32, 2, 3).Equal(node.OutputShape(0)))
	require.False(t, node.OutputShape(1).Ok())
	require.Contains(t, node.(*Node).String(), "Add_")

	// Shape errors are reported.
	_, err = e.Construct("Add", "opset1", []backends.Output{x, parameter(e, dtypes.Int32, 3)}, nil)
	require.Error(t, err)

	// Unknown operations have a single output of unknown rank, unless strict.
	node, err = e.Construct("Frobnicate", "opset9", []backends.Output{x}, nil)
	require.NoError(t, err)
	require.True(t, node.OutputShape(0).DynamicRank)
	require.Equal(t, dtypes.Float32, node.OutputShape(0).DType)
	strict, err := New("strict")
	require.NoError(t, err)
	_, err = strict.Construct("Frobnicate", "opset9", nil, nil)
	require.Error(t, err)

	// Inputs must be valid outputs of the same graph.
	_, err = strict.Construct("Abs", "opset1", []backends.Output{x}, nil)
	require.Error(t, err)
	_, err = e.Construct("Abs", "opset1", []backends.Output{{Node: x.Node, Index: 2}}, nil)
	require.Error(t, err)
}

func TestInferenceThroughFactory(t *testing.T) {
	e := NewEngine()
	factory, err := opset.NewLatestNodeFactory(e)
	require.NoError(t, err)
	create := func(name string, inputs []backends.Output, attrs attributes.Bag) []shapes.Shape {
		node, err := factory.Create(name, inputs, attrs)
		require.NoError(t, err, "creating %s", name)
		outputs := make([]shapes.Shape, node.NumOutputs())
		for ii := range outputs {
			outputs[ii] = node.OutputShape(ii)
		}
		return outputs
	}

	x := parameter(e, dtypes.Float32, 2, 3)
	assert.Equal(t, []int{3, 2}, create("Reshape", []backends.Output{x, constantInt64(e, -1, 2)}, attributes.Bag{
		"special_zero": attributes.Bool(false),
	})[0].Dimensions)

	// Reshape to the (static) shape of another node.
	y := parameter(e, dtypes.Float32, 6)
	shapeOfX := output(factory.Create("ShapeOf", []backends.Output{x}, nil))
	require.Equal(t, dtypes.Int64, shapeOfX.DType())
	assert.Equal(t, []int{2, 3}, create("Reshape", []backends.Output{y, shapeOfX}, attributes.Bag{
		"special_zero": attributes.Bool(false),
	})[0].Dimensions)

	// Target not known: only the rank is.
	target := parameter(e, dtypes.Int64, 3)
	reshaped := create("Reshape", []backends.Output{y, target}, attributes.Bag{"special_zero": attributes.Bool(false)})[0]
	assert.Equal(t, []int{shapes.DynamicDim, shapes.DynamicDim, shapes.DynamicDim}, reshaped.Dimensions)

	images := parameter(e, dtypes.Float32, 1, 3, 9, 9)
	filters := parameter(e, dtypes.Float32, 8, 3, 3, 3)
	assert.Equal(t, []int{1, 8, 7, 7}, create("Convolution", []backends.Output{images, filters}, attributes.Bag{
		"strides": attributes.Ints(1, 1),
	})[0].Dimensions)
	assert.Equal(t, []int{1, 8, 9, 9}, create("Convolution", []backends.Output{images, filters}, attributes.Bag{
		"strides": attributes.Ints(1, 1), "auto_pad": attributes.String("same_upper"),
	})[0].Dimensions)

	splits := create("Split", []backends.Output{parameter(e, dtypes.Float32, 6, 2), scalarInt64(e, 0)},
		attributes.Bag{"num_splits": attributes.Int(3)})
	require.Len(t, splits, 3)
	assert.Equal(t, []int{2, 2}, splits[2].Dimensions)

	topK := create("TopK", []backends.Output{parameter(e, dtypes.Float32, 10), scalarInt64(e, 3)}, attributes.Bag{
		"axis": attributes.Int(0), "mode": attributes.String("max"), "sort": attributes.String("value"),
	})
	require.Len(t, topK, 2)
	assert.Equal(t, []int{3}, topK[0].Dimensions)
	assert.Equal(t, dtypes.Int32, topK[1].DType)

	reduced := create("ReduceSum", []backends.Output{x, constantInt64(e, 1)}, attributes.Bag{"keep_dims": attributes.Bool(true)})[0]
	assert.Equal(t, []int{2, 1}, reduced.Dimensions)

	converted := create("Convert", []backends.Output{x}, attributes.Bag{"destination_type": attributes.String("i32")})[0]
	assert.True(t, shapes.Make(dtypes.Int32, 2, 3).Equal(converted))

	// Shape errors are returned unchanged through the factory.
	_, err = factory.Create("MatMul", []backends.Output{x, x}, nil)
	require.Error(t, err)
	assert.Equal(t, []int{2, 2}, create("MatMul", []backends.Output{x, x}, attributes.Bag{
		"transpose_b": attributes.Bool(true),
	})[0].Dimensions)
}

func TestLegacyLSTMCell(t *testing.T) {
	e := NewEngine()
	factory, err := opset.NewNodeFactoryForVersion(e, opset.Opset1)
	require.NoError(t, err)
	x := parameter(e, dtypes.Float32, 2, 5)
	h := parameter(e, dtypes.Float32, 2, 4)
	c := parameter(e, dtypes.Float32, 2, 4)
	w := parameter(e, dtypes.Float32, 16, 5)
	r := parameter(e, dtypes.Float32, 16, 4)
	b := parameter(e, dtypes.Float32, 16)
	node, err := factory.Create("LSTMCell", []backends.Output{x, h, c, w, r, b}, attributes.Bag{"hidden_size": attributes.Int(4)})
	require.NoError(t, err)
	require.Equal(t, 2, node.NumOutputs())
	require.True(t, shapes.Make(dtypes.Float32, 2, 4).Equal(node.OutputShape(1)))

	inputs := node.Inputs()
	require.Len(t, inputs, 7)
	peepholes := inputs[6].Node.(*Node)
	require.Equal(t, "Constant", peepholes.Type())
	require.Equal(t, make([]float32, 12), peepholes.Value())

	// Nodes are kept in construction order: the derived constant comes before the cell.
	nodes := e.Nodes()
	require.Equal(t, node, backends.Node(nodes[len(nodes)-1]))
	require.Equal(t, peepholes, nodes[len(nodes)-2])
}

func TestLegacyOperations(t *testing.T) {
	e := NewEngine()
	factory, err := opset.NewNodeFactoryForVersion(e, opset.Opset0)
	require.NoError(t, err)
	x := parameter(e, dtypes.Float32, 4, 6)

	node, err := factory.Create("Slice", []backends.Output{x}, attributes.Bag{
		"lower_bounds": attributes.Ints(1, 0),
		"upper_bounds": attributes.Ints(3, 6),
		"strides":      attributes.Ints(1, 4),
	})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, node.OutputShape(0).Dimensions)

	node, err = factory.Create("Dot", []backends.Output{x, parameter(e, dtypes.Float32, 6, 5)}, nil)
	require.NoError(t, err)
	require.Equal(t, []int{4, 5}, node.OutputShape(0).Dimensions)

	node, err = factory.Create("Broadcast", []backends.Output{parameter(e, dtypes.Float32, 6)}, attributes.Bag{
		"shape":          attributes.Ints(4, 6),
		"broadcast_axes": attributes.Ints(0),
	})
	require.NoError(t, err)
	require.Equal(t, []int{4, 6}, node.OutputShape(0).Dimensions)

	node, err = factory.Create("ArgMax", []backends.Output{x}, attributes.Bag{"axis": attributes.Int(1)})
	require.NoError(t, err)
	require.True(t, shapes.Make(dtypes.Int32, 4).Equal(node.OutputShape(0)))

	topK, err := opset.NewNodeFactoryForVersion(e, opset.Opset1)
	require.NoError(t, err)
	outputs, err := topK.CreateOutputs("TopK", []backends.Output{x, scalarInt64(e, 2)}, attributes.Bag{
		"axis": attributes.Int(1), "mode": attributes.String("min"), "sort": attributes.String("none"),
	})
	require.NoError(t, err)
	element, err := factory.Create("GetOutputElement", []backends.Output{outputs[0]}, attributes.Bag{"n": attributes.Int(1)})
	require.NoError(t, err)
	require.Equal(t, []int{4, 2}, element.OutputShape(0).Dimensions)
}

func TestConcurrentReadsWhileBuilding(t *testing.T) {
	e := NewEngine()
	const numConstants = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for ii := range numConstants {
			if ii%2 == 0 {
				scalarInt64(e, int64(ii))
			} else {
				parameter(e, dtypes.Float32, 2)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for e.NumNodes() < numConstants {
			for _, n := range e.Nodes() {
				_ = n.Name()
				_ = n.Value()
			}
		}
	}()
	wg.Wait()

	nodes := e.Nodes()
	require.Len(t, nodes, numConstants)
	for ii, n := range nodes {
		assert.Equal(t, fmt.Sprintf("%s_%d", n.Type(), ii), n.Name())
		if ii%2 == 0 {
			assert.Equal(t, []int64{int64(ii)}, n.Value())
		} else {
			assert.Nil(t, n.Value())
		}
	}
}
