// Package environment implements the deployable environment manifest — a
// versioned bundle of components plus configuration variables — and the
// dependency analyser that checks whether a component set's imports are
// satisfiable before the runtime attempts to link and run it. Grounded on
// asterai/src/environment/mod.rs, runtime/src/environment/mod.rs, and
// runtime/src/environment/deps.rs.
package environment

import (
	"github.com/asterai-io/asterai-sub000/component"
)

// Metadata identifies one environment manifest by namespace, name, and
// version.
type Metadata struct {
	Namespace string
	Name      string
	Version   string
}

// Environment is the deployable unit: a set of components plus
// configuration variables, keyed the way env.toml serializes them
// ("namespace:name" -> "version").
type Environment struct {
	Metadata   Metadata
	Components map[string]string // "namespace:name" -> version
	Vars       map[string]string
}

// New creates an empty environment manifest.
func New(namespace, name, version string) *Environment {
	return &Environment{
		Metadata:   Metadata{Namespace: namespace, Name: name, Version: version},
		Components: make(map[string]string),
		Vars:       make(map[string]string),
	}
}

// IsLocal reports whether this is an unpushed local environment, which
// uses "0.0.0" as a placeholder version.
func (e *Environment) IsLocal() bool {
	return e.Metadata.Version == "0.0.0"
}

// AddComponent records c in this environment's component set.
func (e *Environment) AddComponent(c component.Component) {
	e.Components[c.Namespace()+":"+c.Name()] = c.Version()
}

// RemoveComponent removes the component keyed by namespace:name, reporting
// whether it was present.
func (e *Environment) RemoveComponent(namespace, name string) bool {
	key := namespace + ":" + name
	if _, ok := e.Components[key]; !ok {
		return false
	}
	delete(e.Components, key)
	return true
}

// SetVar sets an environment variable.
func (e *Environment) SetVar(key, value string) {
	e.Vars[key] = value
}

// GetVar looks up an environment variable.
func (e *Environment) GetVar(key string) (string, bool) {
	v, ok := e.Vars[key]
	return v, ok
}

// ResourceRef returns the full "namespace:name@version" reference.
func (e *Environment) ResourceRef() string {
	return e.Metadata.Namespace + ":" + e.Metadata.Name + "@" + e.Metadata.Version
}

// ResourceID returns the unversioned "namespace:name" reference.
func (e *Environment) ResourceID() string {
	return e.Metadata.Namespace + ":" + e.Metadata.Name
}

// DisplayRef shows ResourceID for local environments (version is a
// meaningless placeholder) and ResourceRef otherwise.
func (e *Environment) DisplayRef() string {
	if e.IsLocal() {
		return e.ResourceID()
	}
	return e.ResourceRef()
}

// ComponentRefs returns every bundled component as a full
// "namespace:name@version" reference.
func (e *Environment) ComponentRefs() []string {
	refs := make([]string, 0, len(e.Components))
	for id, version := range e.Components {
		refs = append(refs, id+"@"+version)
	}
	return refs
}

// Dependencies returns the package IDs imported by loaded components but
// not exported by any component in the set and not host-provided; these
// must be resolved before the environment can run.
func (e *Environment) Dependencies(components []Reflector) []string {
	return UnsatisfiedImportPackages(components)
}
