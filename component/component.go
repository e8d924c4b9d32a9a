// Package component implements the identity of a single WASM component:
// its namespaced, versioned package name, derivation of its unversioned
// ComponentID, and the "-component" naming convention WASM tooling imposes
// on compiled packages. Grounded on asterai/src/component/mod.rs.
package component

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/asterai-io/asterai-sub000/asterror"
	"github.com/asterai-io/asterai-sub000/pkgname"
)

// Component identifies one versioned, runnable component.
type Component struct {
	packageName pkgname.Name
}

// New validates and wraps a package name as a Component identity. The name
// must not end in "-component" (that suffix is the compiled-artifact naming
// convention applied by WASM tooling, not a component's own identity) and
// must carry a version.
func New(name pkgname.Name) (Component, error) {
	if strings.HasSuffix(name.Name, "-component") {
		return Component{}, asterror.New(asterror.KindMalformedInput,
			"component name cannot end with -component")
	}
	if !name.HasVersion() {
		return Component{}, asterror.New(asterror.KindMalformedInput,
			"version is required for a component")
	}
	return Component{packageName: name}, nil
}

// Parse parses "namespace:name@version" (an "@version" suffix is required).
func Parse(s string) (Component, error) {
	at := strings.LastIndex(s, "@")
	if at == -1 {
		return Component{}, asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("component reference %q is missing a @version suffix", s))
	}
	name, err := pkgname.Parse(s)
	if err != nil {
		return Component{}, err
	}
	return New(name)
}

func (c Component) Namespace() string { return c.packageName.Namespace }
func (c Component) Name() string      { return c.packageName.Name }
func (c Component) Version() string   { return c.packageName.Version }

// PackageName returns the component's full namespace:name@version triple.
func (c Component) PackageName() pkgname.Name { return c.packageName }

// ID returns this component's unversioned identity.
func (c Component) ID() ID {
	id, err := NewID(c.packageName.WithoutVersion())
	if err != nil {
		// New already validated the -component suffix rule; stripping the
		// version cannot make a previously valid name invalid.
		panic(err)
	}
	return id
}

func (c Component) String() string {
	return c.packageName.String()
}

func (c Component) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Component) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ID is a Component's identity without its version, used to key
// environments and the "last calling component" marker.
type ID struct {
	packageName pkgname.Name
}

// NewID validates and wraps an unversioned package name as a ComponentID.
func NewID(name pkgname.Name) (ID, error) {
	if strings.HasSuffix(name.Name, "-component") {
		return ID{}, asterror.New(asterror.KindMalformedInput,
			"component name cannot end with -component")
	}
	if name.HasVersion() {
		return ID{}, asterror.New(asterror.KindMalformedInput,
			"a ComponentID cannot carry a version")
	}
	return ID{packageName: name}, nil
}

// ParseID parses "namespace:name" (no version permitted).
func ParseID(s string) (ID, error) {
	name, err := pkgname.Parse(s)
	if err != nil {
		return ID{}, err
	}
	return NewID(name)
}

func (id ID) Namespace() string { return id.packageName.Namespace }
func (id ID) Name() string      { return id.packageName.Name }

func (id ID) String() string {
	return id.packageName.String()
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
