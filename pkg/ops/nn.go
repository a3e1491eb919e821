// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"slices"

	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/opset"
	"github.com/gomlx/opset/pkg/support/xslices"
	"github.com/pkg/errors"
)

// ConvolutionBuilder is a helper to build one of the convolution operations.
// Create it with Factory.Convolution (or one of its variations), set the desired parameters and
// when set, call Done.
//
// Parameters not set are left to the operation defaults: no padding, dilations of 1 and auto_pad=EXPLICIT.
// Strides default to 1 for every spatial axis of the data, which must then have a known rank.
type ConvolutionBuilder struct {
	f      *Factory
	opType string
	inputs []any
	attrs  attributes.Bag

	strides     []int
	outputShape any
}

func (f *Factory) newConvolution(opType string, inputs ...any) *ConvolutionBuilder {
	return &ConvolutionBuilder{f: f, opType: opType, inputs: inputs, attrs: attributes.Bag{}}
}

// Convolution prepares a convolution of data, shaped [batch, input_channels, <spatial_dimensions...>],
// with filters shaped [output_channels, input_channels, <spatial_dimensions...>].
//
// It returns a ConvolutionBuilder that can be further configured. Call ConvolutionBuilder.Done to create
// the node.
func (f *Factory) Convolution(data, filters any) *ConvolutionBuilder {
	return f.newConvolution("Convolution", data, filters)
}

// GroupConvolution prepares a convolution where the channels are split in groups, and filters are shaped
// [groups, output_channels/groups, input_channels/groups, <spatial_dimensions...>].
func (f *Factory) GroupConvolution(data, filters any) *ConvolutionBuilder {
	return f.newConvolution("GroupConvolution", data, filters)
}

// BinaryConvolution prepares a convolution with binarized data and filters. mode is "xnor-popcount", and
// padValue is the value used for padded positions.
func (f *Factory) BinaryConvolution(data, filters any, mode string, padValue float64) *ConvolutionBuilder {
	conv := f.newConvolution("BinaryConvolution", data, filters)
	conv.attrs["mode"] = attributes.String(mode)
	conv.attrs["pad_value"] = attributes.Float(padValue)
	return conv
}

// ConvolutionBackpropData prepares a transposed convolution: the gradient of a convolution with respect to
// its data. Filters are shaped [input_channels, output_channels, <spatial_dimensions...>].
func (f *Factory) ConvolutionBackpropData(data, filters any) *ConvolutionBuilder {
	return f.newConvolution("ConvolutionBackpropData", data, filters)
}

// GroupConvolutionBackpropData prepares a transposed convolution with the channels split in groups.
func (f *Factory) GroupConvolutionBackpropData(data, filters any) *ConvolutionBuilder {
	return f.newConvolution("GroupConvolutionBackpropData", data, filters)
}

// DeformableConvolution prepares a convolution whose sampling positions are moved by offsets.
func (f *Factory) DeformableConvolution(data, offsets, filters any) *ConvolutionBuilder {
	return f.newConvolution("DeformableConvolution", data, offsets, filters)
}

// Strides sets the strides per spatial axis.
func (conv *ConvolutionBuilder) Strides(strides ...int) *ConvolutionBuilder {
	conv.strides = slices.Clone(strides)
	return conv
}

// Pads sets the explicit padding at the start and at the end of each spatial axis.
func (conv *ConvolutionBuilder) Pads(begin, end []int) *ConvolutionBuilder {
	conv.attrs["pads_begin"] = intsAttr(begin)
	conv.attrs["pads_end"] = intsAttr(end)
	return conv
}

// Dilations sets the filters dilations per spatial axis.
func (conv *ConvolutionBuilder) Dilations(dilations ...int) *ConvolutionBuilder {
	conv.attrs["dilations"] = intsAttr(dilations)
	return conv
}

// AutoPad sets how padding is computed: "explicit" (uses Pads), "same_upper", "same_lower" or "valid".
func (conv *ConvolutionBuilder) AutoPad(mode string) *ConvolutionBuilder {
	conv.attrs["auto_pad"] = attributes.String(mode)
	return conv
}

// OutputPadding sets the padding added to one side of the output of a transposed convolution.
func (conv *ConvolutionBuilder) OutputPadding(padding ...int) *ConvolutionBuilder {
	conv.attrs["output_padding"] = intsAttr(padding)
	return conv
}

// OutputShape sets the spatial shape of the output of a transposed convolution. shape is a 1D integer node
// or a Go slice.
func (conv *ConvolutionBuilder) OutputShape(shape any) *ConvolutionBuilder {
	conv.outputShape = shape
	return conv
}

// Group sets the number of channel groups of a deformable convolution.
func (conv *ConvolutionBuilder) Group(group int) *ConvolutionBuilder {
	conv.attrs["group"] = attributes.Int(int64(group))
	return conv
}

// DeformableGroup sets the number of groups of offsets of a deformable convolution.
func (conv *ConvolutionBuilder) DeformableGroup(group int) *ConvolutionBuilder {
	conv.attrs["deformable_group"] = attributes.Int(int64(group))
	return conv
}

// Done creates the convolution node and returns its output.
func (conv *ConvolutionBuilder) Done() (backends.Output, error) {
	f := conv.f
	inputs := slices.Clone(conv.inputs)
	strides := conv.strides
	if strides == nil {
		// The data shape is read without creating a constant for literal data.
		data, lit, err := prepare(inputs[0])
		if err != nil {
			return backends.Output{}, errors.WithMessage(err, conv.opType)
		}
		shape := data.Shape()
		if lit != nil {
			shape = lit.shape
		}
		if shape.Rank() < 2 {
			return backends.Output{}, errors.Wrapf(opset.ErrMissingAttribute,
				"%s: strides must be set for data shaped %s", conv.opType, shape)
		}
		strides = xslices.SliceWithValue(shape.Rank()-2, 1)
	}
	attrs := conv.attrs.Clone()
	attrs["strides"] = intsAttr(strides)
	if conv.outputShape != nil {
		inputs = append(inputs, conv.outputShape)
	}
	return f.create(conv.opType, attrs, inputs...)
}

// PoolBuilder is a helper to build a pooling operation.
// Create it with Factory.AvgPool or Factory.MaxPool, set the desired parameters and
// when set, call Done.
//
// Strides default to 1 for every axis of the kernel, and there is no padding.
type PoolBuilder struct {
	f      *Factory
	opType string
	data   any
	kernel []int
	attrs  attributes.Bag

	strides []int
	err     error
}

// AvgPool prepares an average pooling of data, shaped [batch, channels, <spatial_dimensions...>], with a
// window of the given kernel dimensions. Padded positions are excluded from the average by default.
func (f *Factory) AvgPool(data any, kernel ...int) *PoolBuilder {
	pool := &PoolBuilder{f: f, opType: "AvgPool", data: data, kernel: slices.Clone(kernel), attrs: attributes.Bag{}}
	return pool.ExcludePad(true)
}

// MaxPool prepares a max pooling of data, shaped [batch, channels, <spatial_dimensions...>], with a window
// of the given kernel dimensions.
func (f *Factory) MaxPool(data any, kernel ...int) *PoolBuilder {
	return &PoolBuilder{f: f, opType: "MaxPool", data: data, kernel: slices.Clone(kernel), attrs: attributes.Bag{}}
}

// Strides sets the strides per spatial axis.
func (pool *PoolBuilder) Strides(strides ...int) *PoolBuilder {
	pool.strides = slices.Clone(strides)
	return pool
}

// Pads sets the explicit padding at the start and at the end of each spatial axis.
func (pool *PoolBuilder) Pads(begin, end []int) *PoolBuilder {
	pool.attrs["pads_begin"] = intsAttr(begin)
	pool.attrs["pads_end"] = intsAttr(end)
	return pool
}

// RoundingType sets how the output dimensions are rounded: "floor" (the default) or "ceil".
func (pool *PoolBuilder) RoundingType(rounding string) *PoolBuilder {
	pool.attrs["rounding_type"] = attributes.String(rounding)
	return pool
}

// AutoPad sets how padding is computed: "explicit" (uses Pads), "same_upper", "same_lower" or "valid".
func (pool *PoolBuilder) AutoPad(mode string) *PoolBuilder {
	pool.attrs["auto_pad"] = attributes.String(mode)
	return pool
}

// ExcludePad sets whether padded positions are excluded from the average. Only for AvgPool.
func (pool *PoolBuilder) ExcludePad(exclude bool) *PoolBuilder {
	if pool.opType != "AvgPool" {
		pool.err = errors.Wrapf(opset.ErrInvalidAttributeValue, "exclude_pad is only defined for AvgPool, not %s", pool.opType)
		return pool
	}
	pool.attrs["exclude_pad"] = attributes.Bool(exclude)
	return pool
}

// Done creates the pooling node and returns its output.
func (pool *PoolBuilder) Done() (backends.Output, error) {
	if pool.err != nil {
		return backends.Output{}, pool.err
	}
	strides := pool.strides
	if strides == nil {
		strides = xslices.SliceWithValue(len(pool.kernel), 1)
	}
	attrs := pool.attrs.Clone()
	attrs["kernel"] = intsAttr(pool.kernel)
	attrs["strides"] = intsAttr(strides)
	return pool.f.create(pool.opType, attrs, pool.data)
}

// PSROIPooling applies position sensitive pooling of input over the regions of interest in coords, shaped
// [num_rois, 5]. mode is "average" or "bilinear".
func (f *Factory) PSROIPooling(input, coords any, outputDim, groupSize int, spatialScale float64,
	spatialBinsX, spatialBinsY int, mode string) (backends.Output, error) {
	return f.create("PSROIPooling", attributes.Bag{
		"output_dim":     attributes.Int(int64(outputDim)),
		"group_size":     attributes.Int(int64(groupSize)),
		"spatial_scale":  attributes.Float(spatialScale),
		"spatial_bins_x": attributes.Int(int64(spatialBinsX)),
		"spatial_bins_y": attributes.Int(int64(spatialBinsY)),
		"mode":           attributes.String(mode),
	}, input, coords)
}

// DeformablePSROIPoolingConfig holds the optional parameters of DeformablePSROIPooling. Zero values are
// left to the operation defaults.
type DeformablePSROIPoolingConfig struct {
	GroupSize                  int
	Mode                       string
	SpatialBinsX, SpatialBinsY int
	TransStd                   float64
	PartSize                   int
}

// DeformablePSROIPooling applies position sensitive pooling of featureMaps over the regions of interest in
// coords, with the bins moved by offsets. offsets is optional (nil).
func (f *Factory) DeformablePSROIPooling(featureMaps, coords, offsets any, outputDim int, spatialScale float64,
	config DeformablePSROIPoolingConfig) (backends.Output, error) {
	attrs := attributes.Bag{
		"output_dim":    attributes.Int(int64(outputDim)),
		"spatial_scale": attributes.Float(spatialScale),
	}
	for name, value := range map[string]int{
		"group_size":     config.GroupSize,
		"spatial_bins_x": config.SpatialBinsX,
		"spatial_bins_y": config.SpatialBinsY,
		"part_size":      config.PartSize,
	} {
		if value != 0 {
			attrs[name] = attributes.Int(int64(value))
		}
	}
	if config.Mode != "" {
		attrs["mode"] = attributes.String(config.Mode)
	}
	if config.TransStd != 0 {
		attrs["trans_std"] = attributes.Float(config.TransStd)
	}
	return f.create("DeformablePSROIPooling", attrs, featureMaps, coords, offsets)
}

// ROIPooling max (or bilinear) pools input over the regions of interest in coords to outputSize
// ([height, width]). method is "max" or "bilinear". Available from opset2.
func (f *Factory) ROIPooling(input, coords any, outputSize []int, spatialScale float64, method string) (backends.Output, error) {
	return f.create("ROIPooling", attributes.Bag{
		"output_size":   intsAttr(outputSize),
		"spatial_scale": attributes.Float(spatialScale),
		"method":        attributes.String(method),
	}, input, coords)
}

// ROIAlign pools data over the regions of interest rois, of the images given by batchIndices, with bilinear
// sampling. mode is "avg" or "max". Available from opset3.
func (f *Factory) ROIAlign(data, rois, batchIndices any, pooledH, pooledW, samplingRatio int,
	spatialScale float64, mode string) (backends.Output, error) {
	return f.create("ROIAlign", attributes.Bag{
		"pooled_h":       attributes.Int(int64(pooledH)),
		"pooled_w":       attributes.Int(int64(pooledW)),
		"sampling_ratio": attributes.Int(int64(samplingRatio)),
		"spatial_scale":  attributes.Float(spatialScale),
		"mode":           attributes.String(mode),
	}, data, rois, batchIndices)
}

// ReorgYolo moves spatial blocks of the given stride into channels. Available from opset2.
func (f *Factory) ReorgYolo(x any, stride ...int) (backends.Output, error) {
	return f.create("ReorgYolo", attributes.Bag{"stride": intsAttr(stride)}, x)
}

// RecurrentBuilder is a helper to build one of the recurrent cells or sequences.
// Create it with Factory.LSTMCell, Factory.LSTMSequence, Factory.GRUCell or Factory.RNNCell, set the
// desired parameters and when set, call Done.
type RecurrentBuilder struct {
	f         *Factory
	opType    string
	inputs    []any
	peepholes any
	attrs     attributes.Bag
}

func (f *Factory) newRecurrent(opType string, hiddenSize int, inputs ...any) *RecurrentBuilder {
	return &RecurrentBuilder{
		f:      f,
		opType: opType,
		inputs: inputs,
		attrs:  attributes.Bag{"hidden_size": attributes.Int(int64(hiddenSize))},
	}
}

// LSTMCell prepares one step of an LSTM: x is [batch, input_size], h and c are [batch, hidden_size], w is
// [4*hidden_size, input_size], r is [4*hidden_size, hidden_size] and b is [4*hidden_size].
//
// It has 2 outputs: the new hidden state and the new cell state.
func (f *Factory) LSTMCell(x, h, c, w, r, b any, hiddenSize int) *RecurrentBuilder {
	return f.newRecurrent("LSTMCell", hiddenSize, x, h, c, w, r, b)
}

// LSTMSequence prepares an LSTM over the sequences x, of the given lengths. direction is "forward",
// "reverse" or "bidirectional".
//
// It has 3 outputs: all the hidden states, the last hidden state and the last cell state.
func (f *Factory) LSTMSequence(x, h, c, sequenceLengths, w, r, b any, hiddenSize int, direction string) *RecurrentBuilder {
	rnn := f.newRecurrent("LSTMSequence", hiddenSize, x, h, c, sequenceLengths, w, r, b)
	rnn.attrs["direction"] = attributes.String(direction)
	return rnn
}

// GRUCell prepares one step of a GRU: w is [3*hidden_size, input_size] and r is [3*hidden_size, hidden_size].
// Available from opset3.
func (f *Factory) GRUCell(x, h, w, r, b any, hiddenSize int) *RecurrentBuilder {
	return f.newRecurrent("GRUCell", hiddenSize, x, h, w, r, b)
}

// RNNCell prepares one step of a vanilla RNN. Available from opset3.
func (f *Factory) RNNCell(x, h, w, r, b any, hiddenSize int) *RecurrentBuilder {
	return f.newRecurrent("RNNCell", hiddenSize, x, h, w, r, b)
}

// Activations sets the names of the activation functions ("relu", "sigmoid" or "tanh").
func (rnn *RecurrentBuilder) Activations(names ...string) *RecurrentBuilder {
	rnn.attrs["activations"] = attributes.Strings(names...)
	return rnn
}

// ActivationsAlpha sets the alpha parameters of the activation functions.
func (rnn *RecurrentBuilder) ActivationsAlpha(alpha ...float64) *RecurrentBuilder {
	rnn.attrs["activations_alpha"] = attributes.Floats(alpha...)
	return rnn
}

// ActivationsBeta sets the beta parameters of the activation functions.
func (rnn *RecurrentBuilder) ActivationsBeta(beta ...float64) *RecurrentBuilder {
	rnn.attrs["activations_beta"] = attributes.Floats(beta...)
	return rnn
}

// Clip sets the cell clip threshold. 0 disables clipping.
func (rnn *RecurrentBuilder) Clip(clip float64) *RecurrentBuilder {
	rnn.attrs["clip"] = attributes.Float(clip)
	return rnn
}

// Peepholes sets the peephole weights of a legacy LSTM (before opset4). When not set, they are zeros.
func (rnn *RecurrentBuilder) Peepholes(p any) *RecurrentBuilder {
	rnn.peepholes = p
	return rnn
}

// WeightsFormat sets the order of the gates in the weights of a legacy LSTM, e.g. "fico".
func (rnn *RecurrentBuilder) WeightsFormat(format string) *RecurrentBuilder {
	rnn.attrs["weights_format"] = attributes.String(format)
	return rnn
}

// InputForget sets whether a legacy LSTM couples the input and forget gates.
func (rnn *RecurrentBuilder) InputForget(inputForget bool) *RecurrentBuilder {
	rnn.attrs["input_forget"] = attributes.Bool(inputForget)
	return rnn
}

// LinearBeforeReset sets whether a GRU applies the linear transformation before multiplying by the reset gate.
func (rnn *RecurrentBuilder) LinearBeforeReset(linear bool) *RecurrentBuilder {
	rnn.attrs["linear_before_reset"] = attributes.Bool(linear)
	return rnn
}

// Done creates the node and returns all its outputs.
func (rnn *RecurrentBuilder) Done() ([]backends.Output, error) {
	inputs := rnn.inputs
	if rnn.peepholes != nil {
		inputs = append(slices.Clone(inputs), rnn.peepholes)
	}
	return rnn.f.Create(rnn.opType, rnn.attrs.Clone(), inputs...)
}
