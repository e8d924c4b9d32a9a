// Package pkgname implements the namespace:name@version triple used to
// identify WIT packages and components, grounded on wit_parser::PackageName
// as used throughout asterai/src/component/mod.rs and runtime/src/component.
package pkgname

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/asterai-io/asterai-sub000/asterror"
)

// Name is a namespace:name[@version] triple. Version is empty when absent.
type Name struct {
	Namespace string
	Name      string
	Version   string
}

// String renders the canonical "namespace:name" or "namespace:name@version" form.
func (n Name) String() string {
	if n.Version == "" {
		return fmt.Sprintf("%s:%s", n.Namespace, n.Name)
	}
	return fmt.Sprintf("%s:%s@%s", n.Namespace, n.Name, n.Version)
}

// HasVersion reports whether a version component is present.
func (n Name) HasVersion() bool {
	return n.Version != ""
}

// Parse accepts either "namespace:name" or "namespace/name", each optionally
// followed by "@version". The colon form is canonical; the slash form
// matches how package references are embedded in export/import paths
// (e.g. "wasi:http/outgoing-handler@0.2.0" decomposes its leading
// "wasi:http" segment this way).
func Parse(s string) (Name, error) {
	rest := s
	version := ""
	if idx := strings.LastIndex(rest, "@"); idx != -1 {
		version = rest[idx+1:]
		rest = rest[:idx]
	}
	sep := strings.IndexAny(rest, ":/")
	if sep == -1 {
		return Name{}, asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("package name %q has no namespace separator", s))
	}
	namespace, name := rest[:sep], rest[sep+1:]
	if namespace == "" || name == "" {
		return Name{}, asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("package name %q has an empty namespace or name", s))
	}
	if version != "" && !semver.IsValid("v"+version) {
		return Name{}, asterror.New(asterror.KindMalformedInput,
			fmt.Sprintf("package name %q has an invalid semver version %q", s, version))
	}
	return Name{Namespace: namespace, Name: name, Version: version}, nil
}

// WithoutVersion returns a copy of n with Version cleared, matching the
// "component ID" relationship to "component" in the original model.
func (n Name) WithoutVersion() Name {
	n.Version = ""
	return n
}

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
