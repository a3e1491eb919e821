// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/backends/enginetest"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/pkg/errors"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T, version Version) (*NodeFactory, *enginetest.Engine) {
	engine := enginetest.New()
	factory, err := NewNodeFactoryForVersion(engine, version)
	require.NoError(t, err)
	return factory, engine
}

func TestParseVersion(t *testing.T) {
	for input, want := range map[string]Version{"": Opset4, "opset3": Opset3, "OpSet1": Opset1, "2": Opset2, " opset0 ": Opset0} {
		got, err := ParseVersion(input)
		require.NoError(t, err, "parsing %q", input)
		assert.Equal(t, want, got, "parsing %q", input)
	}
	for _, input := range []string{"opset", "v3", "opset-1"} {
		_, err := ParseVersion(input)
		require.ErrorIs(t, err, ErrUnknownOpset, "parsing %q", input)
	}
	assert.Equal(t, 3, Opset3.Number())
	assert.Equal(t, -1, Version("latest").Number())
}

func TestRegistry(t *testing.T) {
	r := Default()
	require.Equal(t, []Version{Opset0, Opset1, Opset2, Opset3, Opset4}, r.Versions())
	require.Equal(t, Latest(), r.Latest())

	view, err := r.Resolve("")
	require.NoError(t, err)
	require.Equal(t, Opset4, view.Version())

	_, err = r.Resolve("opset9")
	require.ErrorIs(t, err, ErrUnknownOpset)

	// Frozen.
	require.Error(t, r.Register("opset5", Op("Foo")))

	// Later opsets inherit, and may replace, operations.
	view1, err := r.Resolve(Opset1)
	require.NoError(t, err)
	view3, err := r.Resolve(Opset3)
	require.NoError(t, err)
	require.True(t, view3.Has("Gelu"))
	require.False(t, view1.Has("Gelu"))
	require.True(t, view3.Has("Add"))
	shapeOf1, err := view1.Lookup("ShapeOf")
	require.NoError(t, err)
	shapeOf3, err := view3.Lookup("ShapeOf")
	require.NoError(t, err)
	require.Len(t, shapeOf1.Attributes(), 0)
	require.Len(t, shapeOf3.Attributes(), 1)

	_, err = view1.Lookup("Frobnicate")
	require.ErrorIs(t, err, ErrUnknownOperation)
	require.Equal(t, view3.Len(), len(view3.Names()))
}

func TestCustomRegistry(t *testing.T) {
	r := NewRegistry()
	foo := Op("Foo").Inputs("x").Attrs(IntAttr("k").Default(1))
	require.NoError(t, r.Register("opset1", foo, Op("Bar").Inputs("x", "y")))
	require.Error(t, r.Register("opset1", Op("Baz")), "version registered twice")
	require.Error(t, r.Register("opset7", Op("Baz"), Op("Baz")), "operation registered twice")
	require.ErrorIs(t, r.Extend("opset3", "opset2"), ErrUnknownOpset)
	require.NoError(t, r.Extend("opset2", "opset1", Op("Foo").Inputs("x").Attrs(IntAttr("k").Default(2))))

	// Changing the builder after registration doesn't change the registered spec.
	foo.Attrs(IntAttr("extra"))

	view1, err := r.Resolve("opset1")
	require.NoError(t, err)
	spec, err := view1.Lookup("Foo")
	require.NoError(t, err)
	require.Len(t, spec.Attributes(), 1)
	view2, err := r.Resolve("opset2")
	require.NoError(t, err)
	spec, err = view2.Lookup("Foo")
	require.NoError(t, err)
	attr, found := spec.Attribute("k")
	require.True(t, found)
	require.Equal(t, int64(2), attr.DefaultValue().Int())
	require.Equal(t, []string{"Bar", "Foo"}, view2.Names())
}

func TestCreateArity(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	a := engine.Input(dtypes.Float32, 2)
	_, err := factory.Create("Add", []backends.Output{a}, nil)
	require.ErrorIs(t, err, ErrInputArity)
	_, err = factory.Create("Add", []backends.Output{a, a, a}, nil)
	require.ErrorIs(t, err, ErrInputArity)
	_, err = factory.Create("Concat", nil, attributes.Bag{"axis": attributes.Int(0)})
	require.ErrorIs(t, err, ErrInputArity)
	_, err = factory.Create("Add", []backends.Output{a, {}}, nil)
	require.ErrorIs(t, err, ErrUnsupportedValue)
	_, err = factory.Create("Add", []backends.Output{a, {Node: a.Node, Index: 1}}, nil)
	require.ErrorIs(t, err, ErrUnsupportedValue)
	require.Equal(t, 0, engine.NumCalls())

	node, err := factory.Create("Concat", []backends.Output{a, a, a, a}, attributes.Bag{"axis": attributes.Int(0)})
	require.NoError(t, err)
	require.Len(t, node.Inputs(), 4)
}

func TestCreateUnknownOperation(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	a := engine.Input(dtypes.Float32, 2)
	_, err := factory.Create("Frobnicate", []backends.Output{a, a}, nil)
	require.ErrorIs(t, err, ErrUnknownOperation)
	require.Equal(t, 0, engine.NumCalls())
}

func TestCreateDefaults(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	a := engine.Input(dtypes.Float32, 2)
	var bags []attributes.Bag
	for _, attrs := range []attributes.Bag{
		nil,
		{"auto_broadcast": attributes.String("NUMPY")},
		{"auto_broadcast": attributes.String("numpy")},
	} {
		_, err := factory.Create("Add", []backends.Output{a, a}, attrs)
		require.NoError(t, err)
		bags = append(bags, engine.LastCall().Attrs)
	}
	for _, bag := range bags {
		require.True(t, bag.Equal(attributes.Bag{"auto_broadcast": attributes.String("NUMPY")}), "got %s", bag)
	}

	// Every attribute with a literal default, for every operation.
	for _, version := range Default().Versions() {
		view := must.M1(Default().Resolve(version))
		for _, name := range view.Names() {
			spec := must.M1(view.Lookup(name))
			base := sampleAttributes(spec)
			implicit := must.M1(spec.Normalize(sampleInputs(engine, spec), base))
			for _, attr := range spec.Attributes() {
				if !attr.HasDefault() {
					continue
				}
				explicit := base.Clone()
				explicit[attr.Name()] = attr.DefaultValue()
				normalized := must.M1(spec.Normalize(sampleInputs(engine, spec), explicit))
				require.True(t, implicit.Equal(normalized), "%s/%s attribute %q: %s != %s",
					version, name, attr.Name(), implicit, normalized)
			}
		}
	}
}

func TestCreateEnumCaseInsensitive(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	data := engine.Input(dtypes.Float32, 1, 3, 9, 9)
	filters := engine.Input(dtypes.Float32, 8, 3, 3, 3)
	var bags []attributes.Bag
	for _, autoPad := range []string{"same_upper", "SAME_UPPER", "Same_Upper"} {
		_, err := factory.Create("Convolution", []backends.Output{data, filters}, attributes.Bag{
			"strides":  attributes.Ints(1, 1),
			"auto_pad": attributes.String(autoPad),
		})
		require.NoError(t, err)
		bags = append(bags, engine.LastCall().Attrs)
	}
	require.True(t, bags[0].Equal(bags[1]))
	require.True(t, bags[0].Equal(bags[2]))
	require.Equal(t, "SAME_UPPER", bags[0]["auto_pad"].Str())

	// Per-axis defaults from strides.
	require.Equal(t, []int64{0, 0}, bags[0]["pads_begin"].Ints())
	require.Equal(t, []int64{0, 0}, bags[0]["pads_end"].Ints())
	require.Equal(t, []int64{1, 1}, bags[0]["dilations"].Ints())

	numCalls := engine.NumCalls()
	_, err := factory.Create("Convolution", []backends.Output{data, filters}, attributes.Bag{
		"strides": attributes.Ints(1, 1), "auto_pad": attributes.String("same"),
	})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("Convolution", []backends.Output{data, filters}, attributes.Bag{
		"strides": attributes.Ints(1, 1), "pads_begin": attributes.Ints(0),
	})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("Convolution", []backends.Output{data, filters}, attributes.Bag{
		"strides": attributes.Ints(1, 0),
	})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("Convolution", []backends.Output{data, filters}, nil)
	require.ErrorIs(t, err, ErrMissingAttribute)
	_, err = factory.Create("Convolution", []backends.Output{data, filters}, attributes.Bag{
		"strides": attributes.Ints(1, 1), "padding": attributes.Ints(0, 0),
	})
	require.ErrorIs(t, err, ErrInvalidAttributeValue, "unknown attribute")
	require.Equal(t, numCalls, engine.NumCalls())

	// Lower-case enums are kept lower-case.
	_, err = factory.Create("ROIAlign", []backends.Output{data, data, data}, attributes.Bag{
		"pooled_h": attributes.Int(2), "pooled_w": attributes.Int(2), "sampling_ratio": attributes.Int(0),
		"spatial_scale": attributes.Float(1), "mode": attributes.String("AVG"),
	})
	require.NoError(t, err)
	require.Equal(t, "avg", engine.LastCall().Attrs["mode"].Str())
}

func TestCreateKindCoercion(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	a := engine.Input(dtypes.Float32, 2, 3)

	_, err := factory.Create("Elu", []backends.Output{a}, attributes.Bag{"alpha": attributes.Int(1)})
	require.NoError(t, err)
	require.Equal(t, attributes.KindFloat, engine.LastCall().Attrs["alpha"].Kind())

	_, err = factory.Create("MatMul", []backends.Output{a, a}, attributes.Bag{"transpose_a": attributes.Int(1)})
	require.NoError(t, err)
	require.True(t, engine.LastCall().Attrs["transpose_a"].Bool())
	require.False(t, engine.LastCall().Attrs["transpose_b"].Bool())

	_, err = factory.Create("Convert", []backends.Output{a}, attributes.Bag{"destination_type": attributes.String("F16")})
	require.NoError(t, err)
	require.Equal(t, dtypes.Float16, engine.LastCall().Attrs["destination_type"].ElementType())

	_, err = factory.Create("MatMul", []backends.Output{a, a}, attributes.Bag{"transpose_a": attributes.Int(2)})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("Elu", []backends.Output{a}, attributes.Bag{"alpha": attributes.String("1")})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("NonZero", []backends.Output{a}, attributes.Bag{"output_type": attributes.String("f32")})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("Clamp", []backends.Output{a}, attributes.Bag{"min": attributes.Float(2), "max": attributes.Float(1)})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
}

func TestLSTMCellPeepholes(t *testing.T) {
	factory, engine := newFactory(t, Opset1)
	engine.NumOutputs = func(string, attributes.Bag) int { return 2 }
	x := engine.Input(dtypes.Float16, 2, 5)
	h := engine.Input(dtypes.Float16, 2, 4)
	c := engine.Input(dtypes.Float16, 2, 4)
	w := engine.Input(dtypes.Float16, 16, 5)
	r := engine.Input(dtypes.Float16, 16, 4)
	b := engine.Input(dtypes.Float16, 16)
	node, err := factory.Create("LSTMCell", []backends.Output{x, h, c, w, r, b}, attributes.Bag{"hidden_size": attributes.Int(4)})
	require.NoError(t, err)
	require.Equal(t, 2, node.NumOutputs())

	call := engine.LastCall()
	require.Len(t, call.Inputs, 7)
	p := call.Inputs[6]
	require.Equal(t, dtypes.Float16, p.DType())
	require.Equal(t, []int{12}, p.Shape().Dimensions)
	constants := engine.Constants()
	require.Len(t, constants, 1)
	value := reflect.ValueOf(constants[0].Value)
	require.Equal(t, 12, value.Len())
	require.True(t, value.Index(0).IsZero())
	require.Equal(t, "fico", call.Attrs["weights_format"].Str())
	require.False(t, call.Attrs["input_forget"].Bool())
	require.Equal(t, []string{"sigmoid", "tanh", "tanh"}, call.Attrs["activations"].Strings())

	// Explicit peepholes are not replaced.
	peepholes := engine.Input(dtypes.Float16, 12)
	_, err = factory.Create("LSTMCell", []backends.Output{x, h, c, w, r, b, peepholes}, attributes.Bag{"hidden_size": attributes.Int(4)})
	require.NoError(t, err)
	require.Equal(t, peepholes, engine.LastCall().Inputs[6])
	require.Len(t, engine.Constants(), 1)

	// Sequences have one set of peepholes per direction.
	engine.NumOutputs = func(string, attributes.Bag) int { return 3 }
	seqLengths := engine.Input(dtypes.Int32, 2)
	_, err = factory.Create("LSTMSequence", []backends.Output{x, h, c, seqLengths, w, r, b}, attributes.Bag{
		"hidden_size": attributes.Int(4), "direction": attributes.String("BIDIRECTIONAL"),
	})
	require.NoError(t, err)
	require.Equal(t, []int{2, 12}, engine.LastCall().Inputs[7].Shape().Dimensions)
	require.Equal(t, "bidirectional", engine.LastCall().Attrs["direction"].Str())

	// Invalid requests don't create the derived constant.
	_, err = factory.Create("LSTMCell", []backends.Output{x, h, c, w, r, b}, attributes.Bag{"hidden_size": attributes.Int(0)})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	require.Len(t, engine.Constants(), 2)

	// The portable LSTMCell of opset4 has no peepholes.
	factory4, err := NewNodeFactoryForVersion(engine, Opset4)
	require.NoError(t, err)
	engine.NumOutputs = func(string, attributes.Bag) int { return 2 }
	_, err = factory4.Create("LSTMCell", []backends.Output{x, h, c, w, r, b, peepholes}, attributes.Bag{"hidden_size": attributes.Int(4)})
	require.ErrorIs(t, err, ErrInputArity)
	_, err = factory4.Create("LSTMCell", []backends.Output{x, h, c, w, r, b}, attributes.Bag{
		"hidden_size": attributes.Int(4), "weights_format": attributes.String("fico"),
	})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory4.Create("LSTMCell", []backends.Output{x, h, c, w, r, b}, attributes.Bag{"hidden_size": attributes.Int(4)})
	require.NoError(t, err)
	require.Len(t, engine.LastCall().Inputs, 6)
	require.Equal(t, "opset4", engine.LastCall().Version)
}

func TestNonMaxSuppressionDefaults(t *testing.T) {
	factory, engine := newFactory(t, Opset3)
	boxes := engine.Input(dtypes.Float32, 1, 6, 4)
	scores := engine.Input(dtypes.Float32, 1, 1, 6)
	_, err := factory.Create("NonMaxSuppression", []backends.Output{boxes, scores}, nil)
	require.NoError(t, err)
	call := engine.LastCall()
	require.Len(t, call.Inputs, 5)
	require.Equal(t, dtypes.Int64, call.Inputs[2].DType())
	require.Equal(t, dtypes.Float32, call.Inputs[3].DType())
	require.Equal(t, dtypes.Float32, call.Inputs[4].DType())
	require.True(t, call.Inputs[2].Shape().IsScalar())
	require.Equal(t, "corner", call.Attrs["box_encoding"].Str())
	require.True(t, call.Attrs["sort_result_descending"].Bool())
	require.Equal(t, dtypes.Int64, call.Attrs["output_type"].ElementType())

	// Only the missing trailing inputs are derived.
	maxBoxes := engine.Input(dtypes.Int32)
	_, err = factory.Create("NonMaxSuppression", []backends.Output{boxes, scores, maxBoxes}, nil)
	require.NoError(t, err)
	require.Equal(t, maxBoxes, engine.LastCall().Inputs[2])
	require.Len(t, engine.LastCall().Inputs, 5)
}

func TestReverseVersioning(t *testing.T) {
	factory1, engine := newFactory(t, Opset1)
	data := engine.Input(dtypes.Float32, 4, 3)
	axis := engine.Input(dtypes.Bool, 2)
	attrs := attributes.Bag{"mode": attributes.String("mask")}
	_, err := factory1.Create("Reverse", []backends.Output{data, axis}, attrs)
	require.NoError(t, err)
	call := engine.LastCall()
	require.Equal(t, "Reverse", call.OpType)
	require.Equal(t, "opset1", call.Version)
	require.Equal(t, "mask", call.Attrs["mode"].Str())

	factory0, err := NewNodeFactoryForVersion(engine, Opset0)
	require.NoError(t, err)
	numCalls := engine.NumCalls()
	_, err = factory0.Create("Reverse", []backends.Output{data, axis}, attrs)
	require.ErrorIs(t, err, ErrInputArity)
	_, err = factory0.Create("Reverse", []backends.Output{data}, attrs)
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	require.Equal(t, numCalls, engine.NumCalls())

	_, err = factory1.Create("Reverse", []backends.Output{data, axis}, attributes.Bag{"mode": attributes.String("bits")})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)

	// Later versions inherit the opset1 contract: only the legacy one differs.
	factory2, err := NewNodeFactoryForVersion(engine, Opset2)
	require.NoError(t, err)
	_, err = factory2.Create("Reverse", []backends.Output{data, axis}, attrs)
	require.NoError(t, err)
	require.Equal(t, "opset2", engine.LastCall().Version)
	_, err = factory2.Create("Reverse", []backends.Output{data}, attributes.Bag{"reversed_axes": attributes.Ints(0)})
	require.ErrorIs(t, err, ErrInputArity)
}

func TestBroadcastAxesMapping(t *testing.T) {
	factory, engine := newFactory(t, Opset3)
	data := engine.Input(dtypes.Float32, 3)
	target := engine.Input(dtypes.Int64, 2)
	axes := engine.Input(dtypes.Int64, 1)
	_, err := factory.Create("Broadcast", []backends.Output{data, target}, attributes.Bag{"broadcast_spec": attributes.String("explicit")})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("Broadcast", []backends.Output{data, target, axes}, nil)
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = factory.Create("Broadcast", []backends.Output{data, target, axes}, attributes.Bag{"broadcast_spec": attributes.String("explicit")})
	require.NoError(t, err)
	_, err = factory.Create("Broadcast", []backends.Output{data, target}, attributes.Bag{"broadcast_spec": attributes.String("bidirectional")})
	require.NoError(t, err)

	factory1, err := NewNodeFactoryForVersion(engine, Opset1)
	require.NoError(t, err)
	_, err = factory1.Create("Broadcast", []backends.Output{data, target}, attributes.Bag{"broadcast_spec": attributes.String("bidirectional")})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
}

func TestOutputArity(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	data := engine.Input(dtypes.Float32, 6)
	axis := engine.Input(dtypes.Int64)
	_, err := factory.Create("Split", []backends.Output{data, axis}, attributes.Bag{"num_splits": attributes.Int(3)})
	require.Error(t, err, "engine returns 1 output, 3 expected")

	engine.NumOutputs = func(opType string, attrs attributes.Bag) int { return int(attrs.IntOr("num_splits", 1)) }
	outputs, err := factory.CreateOutputs("Split", []backends.Output{data, axis}, attributes.Bag{"num_splits": attributes.Int(3)})
	require.NoError(t, err)
	require.Len(t, outputs, 3)
	require.Equal(t, 2, outputs[2].Index)

	// Dynamic: anything goes.
	engine.NumOutputs = func(string, attributes.Bag) int { return 5 }
	node, err := factory.Create("VariadicSplit", []backends.Output{data, axis, axis}, nil)
	require.NoError(t, err)
	require.Equal(t, 5, node.NumOutputs())
}

func TestEngineErrorsUnchanged(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	a := engine.Input(dtypes.Float32, 2)
	engineErr := errors.New("shape mismatch")
	engine.Err = engineErr
	_, err := factory.Create("Add", []backends.Output{a, a}, nil)
	require.Equal(t, engineErr, err)
	require.Equal(t, 1, engine.NumCalls())

	// Derived inputs are created before the engine rejects the node.
	factory, engine = newFactory(t, Opset1)
	engine.Err = engineErr
	x := engine.Input(dtypes.Float32, 2, 5)
	h := engine.Input(dtypes.Float32, 2, 4)
	w := engine.Input(dtypes.Float32, 16, 5)
	r := engine.Input(dtypes.Float32, 16, 4)
	b := engine.Input(dtypes.Float32, 16)
	_, err = factory.Create("LSTMCell", []backends.Output{x, h, h, w, r, b}, attributes.Bag{"hidden_size": attributes.Int(4)})
	require.Equal(t, engineErr, err)
	require.Len(t, engine.Constants(), 1)
	require.Len(t, engine.LastCall().Inputs, 7)
}

func TestValidate(t *testing.T) {
	view, err := Default().Resolve(Opset1)
	require.NoError(t, err)

	add := must.M1(view.Lookup("Add"))
	attrs, err := add.Validate(2, attributes.Bag{"auto_broadcast": attributes.String("numpy")})
	require.NoError(t, err)
	require.Equal(t, "NUMPY", attrs["auto_broadcast"].Str())
	_, err = add.Validate(1, nil)
	require.ErrorIs(t, err, ErrInputArity)
	_, err = add.Validate(2, attributes.Bag{"auto_broadcast": attributes.String("bogus")})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)

	clamp := must.M1(view.Lookup("Clamp"))
	_, err = clamp.Validate(1, attributes.Bag{"min": attributes.Float(5), "max": attributes.Float(1)})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
	_, err = clamp.Validate(1, attributes.Bag{"min": attributes.Float(5)})
	require.ErrorIs(t, err, ErrMissingAttribute)

	// Checks on the number of inputs run without the inputs.
	pad := must.M1(view.Lookup("Pad"))
	_, err = pad.Validate(4, attributes.Bag{"pad_mode": attributes.String("edge")})
	require.ErrorIs(t, err, ErrInvalidAttributeValue)

	// Checks reading the input nodes only run in Normalize.
	legacy, err := Default().Resolve(Opset0)
	require.NoError(t, err)
	getOutput := must.M1(legacy.Lookup("GetOutputElement"))
	n2 := attributes.Bag{"n": attributes.Int(2)}
	_, err = getOutput.Validate(1, n2)
	require.NoError(t, err)
	engine := enginetest.New()
	_, err = getOutput.Normalize([]backends.Output{engine.Input(dtypes.Float32, 2)}, n2)
	require.ErrorIs(t, err, ErrInvalidAttributeValue)
}

// TestAllOperationsCreatable creates every operation of every version with its minimum number of inputs
// and sample values for the required attributes.
func TestAllOperationsCreatable(t *testing.T) {
	for _, version := range Default().Versions() {
		factory, engine := newFactory(t, version)
		for _, name := range factory.View().Names() {
			spec := must.M1(factory.View().Lookup(name))
			engine.NumOutputs = func(_ string, attrs attributes.Bag) int {
				n, known := spec.OutputArity().Count(attrs)
				if !known {
					return 1
				}
				return n
			}
			inputs := sampleInputs(engine, spec)
			node, err := factory.Create(name, inputs, sampleAttributes(spec))
			require.NoError(t, err, "%s/%s", version, name)
			if n, known := spec.OutputArity().Count(engine.LastCall().Attrs); known {
				require.Equal(t, n, node.NumOutputs(), "%s/%s", version, name)
			}
			require.GreaterOrEqual(t, len(engine.LastCall().Inputs), spec.MinInputs())
		}
	}
}

func TestConcurrentCreate(t *testing.T) {
	factory, engine := newFactory(t, Opset4)
	a := engine.Input(dtypes.Float32, 2)
	const numWorkers, numRequests = 16, 50
	var wg sync.WaitGroup
	errs := make(chan error, numWorkers*numRequests)
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ii := range numRequests {
				attrs := attributes.Bag{"auto_broadcast": attributes.String([]string{"numpy", "NONE", "pdpd"}[ii%3])}
				if _, err := factory.Create("Multiply", []backends.Output{a, a}, attrs); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, numWorkers*numRequests, engine.NumCalls())
}

func TestSpecDescription(t *testing.T) {
	view := must.M1(Default().Resolve(Opset1))
	spec := must.M1(view.Lookup("ConvolutionBackpropData"))
	require.Equal(t, "ConvolutionBackpropData(data, filters, [output_shape]) -> 1", spec.String())
	require.Equal(t, 2, spec.MinInputs())
	require.Equal(t, 3, spec.MaxInputs())
	attr, found := spec.Attribute("dilations")
	require.True(t, found)
	require.False(t, attr.IsRequired())
	require.Equal(t, "default 1 per axis of strides, > 0", attr.Describe())

	concat := must.M1(view.Lookup("Concat"))
	require.Equal(t, -1, concat.MaxInputs())
	require.Equal(t, "Concat(args...) -> 1", concat.String())
	split := must.M1(view.Lookup("Split"))
	require.Equal(t, "=num_splits", split.OutputArity().String())

	lstm := must.M1(view.Lookup("LSTMCell"))
	require.True(t, lstm.IsDerived(6))
	require.False(t, lstm.IsDerived(5))

	require.Panics(t, func() { Op("Bad").Attrs(StringAttr("mode").Enum("a", "b").Default("c")) })
	require.Panics(t, func() { Op("Bad").Attrs(IntAttr("x"), IntAttr("x")) })
	require.Panics(t, func() { Op("Bad").Inputs("x").Derive("x", nil) })
	require.Panics(t, func() { IntAttr("x").PerAxis(0, "strides") })
}

// sampleInputs returns the minimum number of inputs, all float32 matrices.
func sampleInputs(engine *enginetest.Engine, spec *OpSpec) []backends.Output {
	inputs := make([]backends.Output, spec.MinInputs())
	for ii := range inputs {
		inputs[ii] = engine.Input(dtypes.Float32, 2, 2)
	}
	return inputs
}

// sampleAttributes returns valid values for the required attributes.
func sampleAttributes(spec *OpSpec) attributes.Bag {
	attrs := make(attributes.Bag)
	for _, a := range spec.Attributes() {
		if !a.IsRequired() {
			continue
		}
		var v attributes.Value
		intValue := int64(0)
		if a.positive {
			intValue = 1
		}
		switch a.Kind() {
		case attributes.KindInt:
			v = attributes.Int(intValue)
		case attributes.KindFloat:
			v = attributes.Float(1)
		case attributes.KindString:
			v = attributes.String("any")
			if len(a.enum) > 0 {
				v = attributes.String(a.enum[0])
			}
		case attributes.KindBool:
			v = attributes.Bool(false)
		case attributes.KindInts:
			v = attributes.Ints(intValue, intValue)
		case attributes.KindFloats:
			v = attributes.Floats(1)
		case attributes.KindStrings:
			v = attributes.Strings(a.enum...)
		case attributes.KindElementType:
			v = attributes.ElementType(dtypes.Float32)
			if len(a.types) > 0 {
				v = attributes.ElementType(a.types[0])
			}
		default:
			panic(fmt.Sprintf("no sample for attribute %q of kind %s", a.Name(), a.Kind()))
		}
		attrs[a.Name()] = v
	}
	return attrs
}
