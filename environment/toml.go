package environment

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/asterai-io/asterai-sub000/asterror"
)

// manifest is env.toml's on-disk shape (§6): a flat table plus two
// sub-tables, serialised separately from Environment's in-memory shape
// since the in-memory Components map keys on "namespace:name" while the
// manifest's [components] table is more naturally namespace.name-style
// TOML keys; go-toml/v2 marshals a Go map key containing ":" just fine,
// so the two line up without translation.
type manifest struct {
	Namespace  string            `toml:"namespace"`
	Name       string            `toml:"name"`
	Version    string            `toml:"version"`
	Components map[string]string `toml:"components"`
	Vars       map[string]string `toml:"vars"`
}

// LoadTOML reads an env.toml manifest from path.
func LoadTOML(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, asterror.Wrap(asterror.KindMalformedInput, err, "failed to read "+path)
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, asterror.Wrap(asterror.KindMalformedInput, err, "failed to parse "+path)
	}
	env := New(m.Namespace, m.Name, m.Version)
	for k, v := range m.Components {
		env.Components[k] = v
	}
	for k, v := range m.Vars {
		env.Vars[k] = v
	}
	return env, nil
}

// SaveTOML writes e as an env.toml manifest to path.
func SaveTOML(e *Environment, path string) error {
	m := manifest{
		Namespace:  e.Metadata.Namespace,
		Name:       e.Metadata.Name,
		Version:    e.Metadata.Version,
		Components: e.Components,
		Vars:       e.Vars,
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return asterror.Wrap(asterror.KindMalformedInput, err, "failed to encode env.toml")
	}
	return os.WriteFile(path, data, 0o644)
}
