// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
)

// Abs returns the element-wise absolute value of x.
func (f *Factory) Abs(x any) (backends.Output, error) { return f.create("Abs", nil, x) }

// Acos returns the element-wise inverse cosine of x.
func (f *Factory) Acos(x any) (backends.Output, error) { return f.create("Acos", nil, x) }

// Asin returns the element-wise inverse sine of x.
func (f *Factory) Asin(x any) (backends.Output, error) { return f.create("Asin", nil, x) }

// Atan returns the element-wise inverse tangent of x.
func (f *Factory) Atan(x any) (backends.Output, error) { return f.create("Atan", nil, x) }

// Ceiling returns the element-wise ceiling of x.
func (f *Factory) Ceiling(x any) (backends.Output, error) { return f.create("Ceiling", nil, x) }

// Cos returns the element-wise cosine of x.
func (f *Factory) Cos(x any) (backends.Output, error) { return f.create("Cos", nil, x) }

// Cosh returns the element-wise hyperbolic cosine of x.
func (f *Factory) Cosh(x any) (backends.Output, error) { return f.create("Cosh", nil, x) }

// Erf returns the element-wise Gauss error function of x.
func (f *Factory) Erf(x any) (backends.Output, error) { return f.create("Erf", nil, x) }

// Exp returns the element-wise e^x.
func (f *Factory) Exp(x any) (backends.Output, error) { return f.create("Exp", nil, x) }

// Floor returns the element-wise floor of x.
func (f *Factory) Floor(x any) (backends.Output, error) { return f.create("Floor", nil, x) }

// Log returns the element-wise natural logarithm of x.
func (f *Factory) Log(x any) (backends.Output, error) { return f.create("Log", nil, x) }

// Negative returns -x.
func (f *Factory) Negative(x any) (backends.Output, error) { return f.create("Negative", nil, x) }

// Relu returns max(x, 0).
func (f *Factory) Relu(x any) (backends.Output, error) { return f.create("Relu", nil, x) }

// Sigmoid returns 1/(1+e^-x).
func (f *Factory) Sigmoid(x any) (backends.Output, error) { return f.create("Sigmoid", nil, x) }

// Sign returns -1, 0 or 1 according to the sign of x.
func (f *Factory) Sign(x any) (backends.Output, error) { return f.create("Sign", nil, x) }

// Sin returns the element-wise sine of x.
func (f *Factory) Sin(x any) (backends.Output, error) { return f.create("Sin", nil, x) }

// Sinh returns the element-wise hyperbolic sine of x.
func (f *Factory) Sinh(x any) (backends.Output, error) { return f.create("Sinh", nil, x) }

// Sqrt returns the element-wise square root of x.
func (f *Factory) Sqrt(x any) (backends.Output, error) { return f.create("Sqrt", nil, x) }

// Tan returns the element-wise tangent of x.
func (f *Factory) Tan(x any) (backends.Output, error) { return f.create("Tan", nil, x) }

// Tanh returns the element-wise hyperbolic tangent of x.
func (f *Factory) Tanh(x any) (backends.Output, error) { return f.create("Tanh", nil, x) }

// LogicalNot returns the element-wise negation of the booleans x.
func (f *Factory) LogicalNot(x any) (backends.Output, error) { return f.create("LogicalNot", nil, x) }

// Gelu returns the Gaussian error linear unit of x. Available from opset2.
func (f *Factory) Gelu(x any) (backends.Output, error) { return f.create("Gelu", nil, x) }

// Mish returns x*tanh(softplus(x)). Available from opset4.
func (f *Factory) Mish(x any) (backends.Output, error) { return f.create("Mish", nil, x) }

// SoftPlus returns ln(1+e^x). Available from opset4.
func (f *Factory) SoftPlus(x any) (backends.Output, error) { return f.create("SoftPlus", nil, x) }

// HSwish returns the hard version of Swish. Available from opset4.
func (f *Factory) HSwish(x any) (backends.Output, error) { return f.create("HSwish", nil, x) }

// Swish returns x*sigmoid(beta*x). beta is optional (nil), and defaults to 1 in the engine. Available from opset4.
func (f *Factory) Swish(x, beta any) (backends.Output, error) { return f.create("Swish", nil, x, beta) }

// BinaryWith creates the binary element-wise operation name with the given auto_broadcast mode
// ("NONE", "NUMPY" or "PDPD").
func (f *Factory) BinaryWith(name string, x, y any, autoBroadcast string) (backends.Output, error) {
	return f.create(name, attributes.Bag{"auto_broadcast": attributes.String(autoBroadcast)}, x, y)
}

// Add returns x+y, with numpy broadcasting.
func (f *Factory) Add(x, y any) (backends.Output, error) { return f.create("Add", nil, x, y) }

// Subtract returns x-y, with numpy broadcasting.
func (f *Factory) Subtract(x, y any) (backends.Output, error) { return f.create("Subtract", nil, x, y) }

// Multiply returns x*y, with numpy broadcasting.
func (f *Factory) Multiply(x, y any) (backends.Output, error) { return f.create("Multiply", nil, x, y) }

// Divide returns x/y, with numpy broadcasting.
func (f *Factory) Divide(x, y any) (backends.Output, error) { return f.create("Divide", nil, x, y) }

// Power returns x^y, with numpy broadcasting.
func (f *Factory) Power(x, y any) (backends.Output, error) { return f.create("Power", nil, x, y) }

// Maximum returns the element-wise maximum of x and y.
func (f *Factory) Maximum(x, y any) (backends.Output, error) { return f.create("Maximum", nil, x, y) }

// Minimum returns the element-wise minimum of x and y.
func (f *Factory) Minimum(x, y any) (backends.Output, error) { return f.create("Minimum", nil, x, y) }

// Mod returns the truncated remainder of x/y.
func (f *Factory) Mod(x, y any) (backends.Output, error) { return f.create("Mod", nil, x, y) }

// FloorMod returns the floored remainder of x/y.
func (f *Factory) FloorMod(x, y any) (backends.Output, error) { return f.create("FloorMod", nil, x, y) }

// SquaredDifference returns (x-y)^2.
func (f *Factory) SquaredDifference(x, y any) (backends.Output, error) {
	return f.create("SquaredDifference", nil, x, y)
}

// Equal returns x == y.
func (f *Factory) Equal(x, y any) (backends.Output, error) { return f.create("Equal", nil, x, y) }

// NotEqual returns x != y.
func (f *Factory) NotEqual(x, y any) (backends.Output, error) { return f.create("NotEqual", nil, x, y) }

// Less returns x < y.
func (f *Factory) Less(x, y any) (backends.Output, error) { return f.create("Less", nil, x, y) }

// LessEqual returns x <= y.
func (f *Factory) LessEqual(x, y any) (backends.Output, error) { return f.create("LessEqual", nil, x, y) }

// Greater returns x > y.
func (f *Factory) Greater(x, y any) (backends.Output, error) { return f.create("Greater", nil, x, y) }

// GreaterEqual returns x >= y.
func (f *Factory) GreaterEqual(x, y any) (backends.Output, error) {
	return f.create("GreaterEqual", nil, x, y)
}

// LogicalAnd returns x && y.
func (f *Factory) LogicalAnd(x, y any) (backends.Output, error) { return f.create("LogicalAnd", nil, x, y) }

// LogicalOr returns x || y.
func (f *Factory) LogicalOr(x, y any) (backends.Output, error) { return f.create("LogicalOr", nil, x, y) }

// LogicalXor returns x != y, for booleans.
func (f *Factory) LogicalXor(x, y any) (backends.Output, error) { return f.create("LogicalXor", nil, x, y) }

// Elu returns the exponential linear unit of x: x if x > 0, alpha*(e^x-1) otherwise.
func (f *Factory) Elu(x any, alpha float64) (backends.Output, error) {
	return f.create("Elu", attributes.Bag{"alpha": attributes.Float(alpha)}, x)
}

// Selu returns the scaled exponential linear unit of x.
func (f *Factory) Selu(x, alpha, lambda any) (backends.Output, error) {
	return f.create("Selu", nil, x, alpha, lambda)
}

// Clamp limits the values of x to [minValue, maxValue].
func (f *Factory) Clamp(x any, minValue, maxValue float64) (backends.Output, error) {
	return f.create("Clamp", attributes.Bag{"min": attributes.Float(minValue), "max": attributes.Float(maxValue)}, x)
}

// PRelu returns the parametric rectified linear unit: x if x > 0, slope*x otherwise.
func (f *Factory) PRelu(x, slope any) (backends.Output, error) { return f.create("PRelu", nil, x, slope) }

// HardSigmoid returns max(0, min(1, alpha*x + beta)).
func (f *Factory) HardSigmoid(x, alpha, beta any) (backends.Output, error) {
	return f.create("HardSigmoid", nil, x, alpha, beta)
}

// Softmax normalizes x along axis.
func (f *Factory) Softmax(x any, axis int) (backends.Output, error) {
	return f.create("Softmax", attributes.Bag{"axis": attributes.Int(int64(axis))}, x)
}

// GRN applies global response normalization with the given bias.
func (f *Factory) GRN(x any, bias float64) (backends.Output, error) {
	return f.create("GRN", attributes.Bag{"bias": attributes.Float(bias)}, x)
}

// MVN applies mean-variance normalization over the given axes. Available from opset2.
func (f *Factory) MVN(x any, axes []int, normalizeVariance bool, eps float64) (backends.Output, error) {
	return f.create("MVN", attributes.Bag{
		"axes":               intsAttr(axes),
		"normalize_variance": attributes.Bool(normalizeVariance),
		"eps":                attributes.Float(eps),
	}, x)
}

// LRN applies local response normalization over the given axes.
func (f *Factory) LRN(x, axes any, alpha, beta, bias float64, size int) (backends.Output, error) {
	return f.create("LRN", attributes.Bag{
		"alpha": attributes.Float(alpha),
		"beta":  attributes.Float(beta),
		"bias":  attributes.Float(bias),
		"size":  attributes.Int(int64(size)),
	}, x, axes)
}

// NormalizeL2 normalizes x by its L2 norm over axes. epsMode is "add" or "max".
func (f *Factory) NormalizeL2(x, axes any, eps float64, epsMode string) (backends.Output, error) {
	return f.create("NormalizeL2", attributes.Bag{"eps": attributes.Float(eps), "mode": attributes.String(epsMode)}, x, axes)
}

// BatchNormInference normalizes x with the given statistics.
func (f *Factory) BatchNormInference(x, gamma, beta, mean, variance any, epsilon float64) (backends.Output, error) {
	return f.create("BatchNormInference", attributes.Bag{"epsilon": attributes.Float(epsilon)}, gamma, beta, x, mean, variance)
}

// ShuffleChannels permutes the channels (axis) of x, split in groups.
func (f *Factory) ShuffleChannels(x any, axis, groups int) (backends.Output, error) {
	return f.create("ShuffleChannels", attributes.Bag{
		"axis":   attributes.Int(int64(axis)),
		"groups": attributes.Int(int64(groups)),
	}, x)
}

// FakeQuantize quantizes x to the given number of levels and dequantizes it back.
func (f *Factory) FakeQuantize(x, inputLow, inputHigh, outputLow, outputHigh any, levels int) (backends.Output, error) {
	return f.create("FakeQuantize", attributes.Bag{"levels": attributes.Int(int64(levels))},
		x, inputLow, inputHigh, outputLow, outputHigh)
}

// Select returns then where cond is true, and elseValue otherwise, with numpy broadcasting.
func (f *Factory) Select(cond, then, elseValue any) (backends.Output, error) {
	return f.create("Select", nil, cond, then, elseValue)
}
