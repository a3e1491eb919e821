// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

// opset4 extends opset3. LSTMCell is replaced by the portable contract: no peephole weights and no
// weights_format or input_forget attributes.
func opset4() []*OpSpec {
	var specs []*OpSpec
	specs = append(specs, unaryOps("Mish", "SoftPlus", "HSwish")...)
	specs = append(specs, reductionOps("ReduceL1", "ReduceL2")...)
	specs = append(specs,
		Op("Swish").Inputs("data").Optional("beta"),
		Op("LSTMCell").Inputs("X", "initial_hidden_state", "initial_cell_state", "W", "R", "B").
			Attrs(recurrentAttrs("sigmoid", "tanh", "tanh")...).
			Check(checkActivationsCount(3)).
			Outputs(Fixed(2)),
	)
	return specs
}
