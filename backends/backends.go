// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package backends defines the interface a graph engine needs to implement to have nodes built on it by
// the opset factories.
//
// The engine owns nodes: it validates inputs, infers output shapes and keeps the graph. The factory layer
// (package opset) only resolves, validates and normalizes a request before calling Engine.Construct.
//
// Engines register themselves with Register, typically in an init function, and are instantiated with New
// or NewWithConfig.
package backends

import (
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/opset/pkg/core/attributes"
	"github.com/gomlx/opset/pkg/core/shapes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Engine is the API that needs to be implemented by a graph engine.
//
// Implementations must be safe for concurrent use.
type Engine interface {
	// Name returns the short name of the engine. E.g.: "memgraph".
	Name() string

	// Description is a longer description of the Engine that can be used to pretty-print.
	Description() string

	// Construct creates a new node of the given operation type, as defined by the opset version, with the
	// given inputs and (already normalized) attributes.
	//
	// Shape and type errors are reported by the engine and returned unchanged to the caller.
	Construct(opType string, version string, inputs []Output, attrs attributes.Bag) (Node, error)

	// Constant creates a constant node with the given shape and flat values. flat must be a slice of the Go type
	// matching shape.DType, with shape.Size() elements. Dynamic shapes are not accepted.
	Constant(shape shapes.Shape, flat any) (Node, error)

	// Parameter creates an input placeholder of the given shape. The shape may be dynamic.
	Parameter(name string, shape shapes.Shape) (Node, error)
}

// Constructor takes a config string (optionally empty) and returns an Engine.
type Constructor func(config string) (Engine, error)

var (
	registryMu             sync.Mutex
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register engine with the given name, and a constructor that takes as input a configuration string that is
// passed along to the engine.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
	klog.V(1).Infof("registered graph engine %q", name)
}

// List returns the names of the registered engines, sorted.
func List() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registeredConstructors))
	for name := range registeredConstructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultConfig is the name of the default engine configuration to use if specified.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// OPSET_BACKEND is the environment variable with the default engine configuration to use.
//
// The format of config is "<engine_name>:<engine_configuration>".
const OPSET_BACKEND = "OPSET_BACKEND"

// New returns a new default Engine.
//
// The default is:
//
// 1. The environment OPSET_BACKEND is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered engine is used with an empty configuration.
func New() (Engine, error) {
	config, found := os.LookupEnv(OPSET_BACKEND)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// MustNew is like New, but panics on error.
func MustNew() Engine {
	engine, err := New()
	if err != nil {
		panic(err)
	}
	return engine
}

// NewWithConfig takes a configurations string formated as "<engine_name>:<engine_configuration>".
// The "<engine_name>" is the name of a registered engine (e.g.: "memgraph") and "<engine_configuration>" is
// engine specific. If there is no ":", the whole config is taken as the engine name, and an empty config
// selects the first registered engine.
func NewWithConfig(config string) (Engine, error) {
	registryMu.Lock()
	if len(registeredConstructors) == 0 {
		registryMu.Unlock()
		return nil, errors.New(`no registered graph engines -- maybe import the reference one with import _ "github.com/gomlx/opset/backends/memgraph"?`)
	}
	engineName := firstRegistered
	engineConfig := ""
	if idx := strings.Index(config, ":"); idx != -1 {
		engineName = config[:idx]
		engineConfig = config[idx+1:]
	} else if config != "" {
		engineName = config
	}
	constructor, found := registeredConstructors[engineName]
	registryMu.Unlock()
	if !found {
		return nil, errors.Errorf("can't find graph engine %q for configuration %q given", engineName, config)
	}
	var engine Engine
	err := exceptions.TryCatch[error](func() {
		var err error
		engine, err = constructor(engineConfig)
		if err != nil {
			panic(err)
		}
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create graph engine %q", engineName)
	}
	return engine, nil
}
