// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opset

import (
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/gomlx/opset/pkg/support/sets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Registry holds one table of operations per version.
//
// It is populated with Register and Extend, and then frozen with Freeze: from then on it is immutable and
// safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	views  map[Version]*View
	frozen bool
}

// View is the table of operations of one version. It is immutable.
type View struct {
	version Version
	specs   map[string]*OpSpec
	names   []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[Version]*View)}
}

// Register a new version with the given operations.
func (r *Registry) Register(version Version, specs ...*OpSpec) error {
	return r.add(version, nil, specs)
}

// Extend registers a new version with all the operations of the base version, plus the given ones. Operations
// with the same name as one in base replace it.
func (r *Registry) Extend(version, base Version, specs ...*OpSpec) error {
	r.mu.RLock()
	baseView, found := r.views[base]
	r.mu.RUnlock()
	if !found {
		return errors.Wrapf(ErrUnknownOpset, "can't extend %s from unregistered %s", version, base)
	}
	return r.add(version, baseView, specs)
}

func (r *Registry) add(version Version, base *View, specs []*OpSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return errors.Errorf("registry is frozen, can't register %s", version)
	}
	if _, found := r.views[version]; found {
		return errors.Errorf("opset %s already registered", version)
	}
	view := &View{version: version, specs: make(map[string]*OpSpec, len(specs))}
	if base != nil {
		maps.Copy(view.specs, base.specs)
	}
	added := sets.Make[string](len(specs))
	for _, spec := range specs {
		if added.Has(spec.name) {
			return errors.Errorf("operation %s registered twice in %s", spec.name, version)
		}
		added.Insert(spec.name)
		view.specs[spec.name] = spec.clone()
	}
	view.names = slices.Sorted(maps.Keys(view.specs))
	r.views[version] = view
	klog.V(1).Infof("registered %s with %d operations (%d new)", version, len(view.specs), len(specs))
	return nil
}

// Freeze makes the registry immutable.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Resolve returns the view of the given version. The empty version resolves to the latest registered one.
func (r *Registry) Resolve(version Version) (*View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if version == "" {
		version = r.latestLocked()
	}
	view, found := r.views[version]
	if !found {
		return nil, errors.Wrapf(ErrUnknownOpset, "%q is not registered (registered: %v)", version, r.versionsLocked())
	}
	return view, nil
}

// Versions returns the registered versions, in increasing order.
func (r *Registry) Versions() []Version {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.versionsLocked()
}

// Latest returns the highest registered version, or "" if the registry is empty.
func (r *Registry) Latest() Version {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latestLocked()
}

func (r *Registry) versionsLocked() []Version {
	versions := slices.Collect(maps.Keys(r.views))
	slices.SortFunc(versions, func(a, b Version) int { return a.Number() - b.Number() })
	return versions
}

func (r *Registry) latestLocked() Version {
	versions := r.versionsLocked()
	if len(versions) == 0 {
		return ""
	}
	return versions[len(versions)-1]
}

// Version of the view.
func (v *View) Version() Version { return v.version }

// Lookup returns the spec of the operation name.
func (v *View) Lookup(name string) (*OpSpec, error) {
	spec, found := v.specs[name]
	if !found {
		return nil, errors.Wrapf(ErrUnknownOperation, "%q is not defined in %s", name, v.version)
	}
	return spec, nil
}

// Has returns whether the operation name is defined in the view.
func (v *View) Has(name string) bool {
	_, found := v.specs[name]
	return found
}

// Names returns the sorted names of all operations in the view.
func (v *View) Names() []string { return slices.Clone(v.names) }

// Len returns the number of operations in the view.
func (v *View) Len() int { return len(v.names) }

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the built-in registry with the versions opset0 to opset4. It is built on first use
// and it is frozen.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		mustRegister(r.Register(Opset0, opset0()...))
		mustRegister(r.Register(Opset1, opset1()...))
		mustRegister(r.Extend(Opset2, Opset1, opset2()...))
		mustRegister(r.Extend(Opset3, Opset2, opset3()...))
		mustRegister(r.Extend(Opset4, Opset3, opset4()...))
		r.Freeze()
		defaultRegistry = r
	})
	return defaultRegistry
}

func mustRegister(err error) {
	if err != nil {
		panic(errors.WithMessage(err, "failed to build the built-in opsets"))
	}
}

func itoa(i int) string { return strconv.Itoa(i) }
