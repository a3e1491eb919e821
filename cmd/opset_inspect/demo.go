// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/backends/memgraph"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/gomlx/opset/pkg/ops"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
)

// demo builds a small image classifier on the engine configured by engineConfig, and lists the nodes created.
func demo(engineConfig string, version opset.Version) error {
	engine, err := backends.NewWithConfig(engineConfig)
	if err != nil {
		return err
	}
	f, err := ops.New(engine, version)
	if err != nil {
		return err
	}
	var outputs []backends.Output
	err = exceptions.TryCatch[error](func() {
		outputs = buildClassifier(f)
	})
	if err != nil {
		return errors.WithMessagef(err, "building demo graph with %s on %s", version, engine.Name())
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Demo graph: %s on %s", version, engine.Description())))
	t := newTable(lipgloss.Right, lipgloss.Left)
	t.Table.Headers("Node", "Operation", "Opset", "Inputs", "Output")
	var numParameters int
	for _, output := range outputs {
		node := output.Node
		inputs := make([]string, 0, len(node.Inputs()))
		for _, input := range node.Inputs() {
			inputs = append(inputs, input.Node.Name())
		}
		t.Row(node.Type() == "Result", node.Name(), node.Type(), node.Version(), strings.Join(inputs, ", "),
			output.Shape().String())
		if node.Type() == "Parameter" {
			numParameters += output.Shape().Size()
		}
	}
	fmt.Println(t.Render())
	fmt.Printf("%s parameter values\n", humanize.Comma(int64(numParameters)))
	if mem, ok := engine.(*memgraph.Engine); ok {
		fmt.Println(mem.Summary())
	}
	return nil
}

// buildClassifier creates a convolution, a pooling and a dense layer followed by a softmax and the top-3
// classes. It panics on errors.
func buildClassifier(f *ops.Factory) []backends.Output {
	var outputs []backends.Output
	add := func(output backends.Output) backends.Output {
		outputs = append(outputs, output)
		return output
	}
	const batchSize, channels, size, numFilters, numClasses = 2, 3, 8, 4, 10
	images := add(must.M1(f.Parameter("images", dtypes.Float32, batchSize, channels, size, size)))
	filters := add(must.M1(f.Parameter("filters", dtypes.Float32, numFilters, channels, 3, 3)))
	x := add(must.M1(f.Convolution(images, filters).AutoPad("same_upper").Done()))
	x = add(must.M1(f.Relu(x)))
	x = add(must.M1(f.MaxPool(x, 2, 2).Strides(2, 2).Done()))
	x = add(must.M1(f.Reshape(x, []int64{batchSize, -1}, false)))
	weights := add(must.M1(f.Parameter("weights", dtypes.Float32, numFilters*size*size/4, numClasses)))
	x = add(must.M1(f.MatMul(x, weights, false, false)))
	probabilities := add(must.M1(f.Softmax(x, 1)))
	_, indices := must.M2(f.TopK(probabilities, int64(3), 1, "max", "value"))
	add(must.M1(f.Result(probabilities)))
	add(must.M1(f.Result(indices)))
	return outputs
}
