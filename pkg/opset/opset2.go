// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

// opset2 extends opset1.
func opset2() []*OpSpec {
	return []*OpSpec{
		Op("BatchToSpace").Inputs("data", "block_shape", "crops_begin", "crops_end"),
		Op("SpaceToBatch").Inputs("data", "block_shape", "pads_begin", "pads_end"),
		Op("Gelu").Inputs("data"),
		Op("MVN").Inputs("data").Attrs(
			IntsAttr("axes").NonNegative(),
			BoolAttr("normalize_variance"),
			FloatAttr("eps")),
		Op("ROIPooling").Inputs("input", "coords").Attrs(
			IntsAttr("output_size").Positive(),
			FloatAttr("spatial_scale"),
			StringAttr("method").Enum("max", "bilinear").Default("max")).
			Check(checkLen("output_size", 2)),
		Op("ReorgYolo").Inputs("data").Attrs(IntsAttr("stride").Positive()),
	}
}
