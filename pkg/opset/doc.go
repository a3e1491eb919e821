// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package opset holds the versioned operation tables and the node factory that builds nodes on a graph engine.
//
// An opset is a named table of operation contracts (OpSpec): the inputs an operation takes, its attributes
// with their kinds, defaults and accepted values, and how many outputs it produces. The same operation name
// may have different contracts in different opsets: for example, LSTMCell takes peephole weights in opset1
// but not in opset4.
//
// A Registry holds one table per Version, and it is immutable once frozen. Default returns the built-in
// registry with opset0 (legacy operations) to opset4.
//
// A NodeFactory binds one resolved View of the registry to a backends.Engine. Its Create method validates
// and normalizes a request and then delegates the construction to the engine:
//
//	engine := backends.MustNew()
//	factory, err := opset.NewLatestNodeFactory(engine)
//	if err != nil { ... }
//	sum, err := factory.Create("Add", []backends.Output{x, y}, nil)
//
// Nothing is created on the engine when a request fails validation. All errors wrap one of the
// sentinel errors (ErrUnknownOpset, ErrUnknownOperation, ErrInputArity, ErrMissingAttribute,
// ErrInvalidAttributeValue, ErrUnsupportedValue) and can be checked with errors.Is. Errors returned by the
// engine are returned unchanged.
//
// See package ops for typed methods, one per operation, on top of the NodeFactory.
package opset
