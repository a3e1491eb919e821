// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends/memgraph"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/gomlx/opset/pkg/ops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestDescribeJSON(t *testing.T) {
	view, err := opset.Default().Resolve(opset.Opset1)
	require.NoError(t, err)
	spec, err := view.Lookup("LSTMCell")
	require.NoError(t, err)

	blob, err := describeJSON(view.Version(), []*opset.OpSpec{spec})
	require.NoError(t, err)
	var description structpb.Struct
	require.NoError(t, protojson.Unmarshal(blob, &description))
	got := description.AsMap()
	assert.Equal(t, "opset1", got["version"])

	operations := got["operations"].([]any)
	require.Len(t, operations, 1)
	op := operations[0].(map[string]any)
	assert.Equal(t, "LSTMCell", op["name"])
	assert.Equal(t, "2", op["outputs"])

	inputs := op["inputs"].([]any)
	require.Len(t, inputs, 7)
	peepholes := inputs[6].(map[string]any)
	assert.Equal(t, "P", peepholes["name"])
	assert.Equal(t, true, peepholes["optional"])
	assert.Equal(t, true, peepholes["derived"])

	attrs := map[string]map[string]any{}
	for _, a := range op["attributes"].([]any) {
		attr := a.(map[string]any)
		attrs[attr["name"].(string)] = attr
	}
	assert.Equal(t, true, attrs["hidden_size"]["required"])
	assert.Equal(t, []any{"sigmoid", "tanh", "tanh"}, attrs["activations"]["default"])
	assert.Equal(t, "fico", attrs["weights_format"]["default"])
	assert.Equal(t, 0.0, attrs["clip"]["default"])
}

func TestTables(t *testing.T) {
	view, err := opset.Default().Resolve(opset.Opset4)
	require.NoError(t, err)
	spec, err := view.Lookup("Convolution")
	require.NoError(t, err)

	rendered := operationsTable([]*opset.OpSpec{spec}).Render()
	assert.Contains(t, rendered, "Convolution(data, filters) -> 1")
	assert.Contains(t, rendered, "auto_pad")

	table := attributesTable(spec)
	assert.Equal(t, 1+len(spec.Attributes()), table.Count)
	assert.True(t, table.Highlighted[1], "strides is required")
	assert.Contains(t, table.Render(), "default 0 per axis of strides")
}

func TestBuildClassifier(t *testing.T) {
	engine := memgraph.NewEngine()
	f, err := ops.NewLatest(engine)
	require.NoError(t, err)
	outputs := buildClassifier(f)
	require.NotEmpty(t, outputs)

	last := outputs[len(outputs)-1]
	assert.Equal(t, "Result", last.Node.Type())
	assert.Equal(t, dtypes.Int32, last.DType())
	assert.Equal(t, []int{2, 3}, last.Shape().Dimensions)
	probabilities := outputs[len(outputs)-2]
	assert.Equal(t, []int{2, 10}, probabilities.Shape().Dimensions)

	// Legacy opsets don't have the operations used.
	legacy, err := ops.New(engine, opset.Opset0)
	require.NoError(t, err)
	require.Panics(t, func() { buildClassifier(legacy) })
}
