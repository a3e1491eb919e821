// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"github.com/gomlx/gopjrt/dtypes"
)

// opset3 extends opset2. ShapeOf, TopK, Broadcast and NonMaxSuppression are replaced by versions that
// can choose their output type or, for Broadcast, a bidirectional mode.
func opset3() []*OpSpec {
	return []*OpSpec{
		Op("NonZero").Inputs("data").Attrs(TypeAttr("output_type").Types(indexTypes...).Default("i64")),
		Op("ShapeOf").Inputs("data").Attrs(TypeAttr("output_type").Types(indexTypes...).Default("i64")),
		Op("TopK").Inputs("data", "k").Attrs(
			IntAttr("axis"),
			StringAttr("mode").Enum("max", "min"),
			StringAttr("sort").Enum("value", "index", "none"),
			TypeAttr("index_element_type").Types(indexTypes...).Default("i32")).
			Outputs(Fixed(2)),
		Op("Broadcast").Inputs("data", "target_shape").Optional("axes_mapping").Attrs(
			StringAttr("broadcast_spec").Enum("NUMPY", "EXPLICIT", "PDPD", "BIDIRECTIONAL").Default("NUMPY")).
			Check(checkExplicitAxesMapping),
		Op("NonMaxSuppression").Inputs("boxes", "scores").
			Optional("max_output_boxes_per_class", "iou_threshold", "score_threshold").
			Derive("max_output_boxes_per_class", zeroScalar(dtypes.Int64)).
			Derive("iou_threshold", zeroScalar(dtypes.Float32)).
			Derive("score_threshold", zeroScalar(dtypes.Float32)).
			Attrs(
				StringAttr("box_encoding").Enum("corner", "center").Default("corner"),
				BoolAttr("sort_result_descending").Default(true),
				TypeAttr("output_type").Types(indexTypes...).Default("i64")),
		Op("ScatterUpdate").Inputs("data", "indices", "updates", "axis"),
		Op("ScatterElementsUpdate").Inputs("data", "indices", "updates", "axis"),
		Op("ROIAlign").Inputs("data", "rois", "batch_indices").Attrs(
			IntAttr("pooled_h").Positive(),
			IntAttr("pooled_w").Positive(),
			IntAttr("sampling_ratio").NonNegative(),
			FloatAttr("spatial_scale"),
			StringAttr("mode").Enum("avg", "max")),
		Op("GRUCell").Inputs("X", "initial_hidden_state", "W", "R", "B").
			Attrs(recurrentAttrs("relu", "sigmoid", "tanh")...).
			Attrs(BoolAttr("linear_before_reset").Default(false)),
		Op("RNNCell").Inputs("X", "initial_hidden_state", "W", "R", "B").
			Attrs(recurrentAttrs("sigmoid", "tanh")...),
		Op("CumSum").Inputs("arg", "axis").Attrs(
			BoolAttr("exclusive").Default(false),
			BoolAttr("reverse").Default(false)),
		Op("Bucketize").Inputs("data", "buckets").Attrs(
			TypeAttr("output_type").Types(indexTypes...).Default("i64"),
			BoolAttr("with_right_bound").Default(true)),
	}
}
