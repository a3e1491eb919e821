// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"github.com/gomlx/opset/backends"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// NodeFactory creates nodes on an engine, using the operations of one View.
//
// It holds no mutable state: it is safe for concurrent use if the engine is.
type NodeFactory struct {
	engine backends.Engine
	view   *View
}

// NewNodeFactory binds the view to the engine.
func NewNodeFactory(engine backends.Engine, view *View) *NodeFactory {
	return &NodeFactory{engine: engine, view: view}
}

// NewNodeFactoryForVersion returns a NodeFactory for the given version of the Default registry.
func NewNodeFactoryForVersion(engine backends.Engine, version Version) (*NodeFactory, error) {
	view, err := Default().Resolve(version)
	if err != nil {
		return nil, err
	}
	return NewNodeFactory(engine, view), nil
}

// NewLatestNodeFactory returns a NodeFactory for the latest version of the Default registry.
func NewLatestNodeFactory(engine backends.Engine) (*NodeFactory, error) {
	return NewNodeFactoryForVersion(engine, Latest())
}

// Engine used to create the nodes.
func (f *NodeFactory) Engine() backends.Engine { return f.engine }

// View with the operations used by the factory.
func (f *NodeFactory) View() *View { return f.view }

// Version of the operations created by the factory.
func (f *NodeFactory) Version() Version { return f.view.version }

// Create validates the request, fills in the defaults, computes the derived inputs and delegates the
// construction of the node to the engine.
//
// Nothing is created on the engine if the request is invalid. Errors from the engine are returned unchanged:
// derived inputs are created before the engine constructs the node, so if the engine then rejects the node,
// the derived constants stay in its graph, unused.
func (f *NodeFactory) Create(name string, inputs []backends.Output, attrs attributes.Bag) (backends.Node, error) {
	spec, err := f.view.Lookup(name)
	if err != nil {
		return nil, err
	}
	normalized, err := spec.Normalize(inputs, attrs)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s (%s)", name, f.view.version)
	}
	inputs, err = spec.derive(f.engine, inputs, normalized)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s (%s)", name, f.view.version)
	}
	klog.V(2).Infof("%s: creating %s with %d inputs and attributes %s", f.view.version, name, len(inputs), normalized)
	node, err := f.engine.Construct(name, string(f.view.version), inputs, normalized)
	if err != nil {
		return nil, err
	}
	if want, known := spec.outputs.Count(normalized); known && node.NumOutputs() != want {
		return nil, errors.Errorf("%s (%s): engine %s created a node with %d outputs, expected %d",
			name, f.view.version, f.engine.Name(), node.NumOutputs(), want)
	}
	return node, nil
}

// CreateOutputs is like Create, but returns all the outputs of the new node.
func (f *NodeFactory) CreateOutputs(name string, inputs []backends.Output, attrs attributes.Bag) ([]backends.Output, error) {
	node, err := f.Create(name, inputs, attrs)
	if err != nil {
		return nil, err
	}
	return backends.OutputsOf(node), nil
}
