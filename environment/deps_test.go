package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/component/wit"
	"github.com/asterai-io/asterai-sub000/environment"
)

type fakeComponent struct {
	component component.Component
	imports   []wit.ImportedInterface
	exports   []wit.ExportedInterface
}

func (f fakeComponent) Component() component.Component              { return f.component }
func (f fakeComponent) ImportedInterfaces() []wit.ImportedInterface { return f.imports }
func (f fakeComponent) ExportedInterfaces() []wit.ExportedInterface { return f.exports }

func mustComponent(t *testing.T, s string) component.Component {
	t.Helper()
	c, err := component.Parse(s)
	require.NoError(t, err)
	return c
}

func TestUnsatisfiedImportPackagesSkipsHostProvided(t *testing.T) {
	components := []environment.Reflector{
		fakeComponent{
			component: mustComponent(t, "asterai:app@0.1.0"),
			imports: []wit.ImportedInterface{
				{Name: "wasi:cli/environment@0.2.0"},
				{Name: "asterai:host/api@0.1.0"},
				{Name: "asterai:fs/fs@1.0.0"},
			},
		},
	}
	missing := environment.UnsatisfiedImportPackages(components)
	assert.Equal(t, []string{"asterai:fs"}, missing)
}

func TestUnsatisfiedImportPackagesSkipsSelfProvided(t *testing.T) {
	components := []environment.Reflector{
		fakeComponent{
			component: mustComponent(t, "asterai:fs@1.0.0"),
			exports:   []wit.ExportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
		fakeComponent{
			component: mustComponent(t, "asterai:app@0.1.0"),
			imports:   []wit.ImportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
	}
	missing := environment.UnsatisfiedImportPackages(components)
	assert.Empty(t, missing)
}

func TestUnsatisfiedImportPackagesDedupesFirstSeenOrder(t *testing.T) {
	components := []environment.Reflector{
		fakeComponent{
			component: mustComponent(t, "asterai:a@0.1.0"),
			imports: []wit.ImportedInterface{
				{Name: "asterai:fs/fs@1.0.0"},
				{Name: "asterai:telegram/bot@1.0.0"},
			},
		},
		fakeComponent{
			component: mustComponent(t, "asterai:b@0.1.0"),
			imports:   []wit.ImportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
	}
	missing := environment.UnsatisfiedImportPackages(components)
	assert.Equal(t, []string{"asterai:fs", "asterai:telegram"}, missing)
}

func TestConflictingExportsOnlyReportsImportedConflicts(t *testing.T) {
	components := []environment.Reflector{
		fakeComponent{
			component: mustComponent(t, "asterai:a@0.1.0"),
			exports:   []wit.ExportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
		fakeComponent{
			component: mustComponent(t, "asterai:b@0.1.0"),
			exports:   []wit.ExportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
		fakeComponent{
			component: mustComponent(t, "asterai:c@0.1.0"),
			imports:   []wit.ImportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
	}
	conflicts := environment.ConflictingExports(components)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "asterai:fs/fs@1.0.0", conflicts[0].Interface)
	assert.Equal(t, []string{"asterai:a", "asterai:b"}, conflicts[0].Providers)
}

func TestConflictingExportsIgnoresUnimportedDuplicates(t *testing.T) {
	components := []environment.Reflector{
		fakeComponent{
			component: mustComponent(t, "asterai:a@0.1.0"),
			exports:   []wit.ExportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
		fakeComponent{
			component: mustComponent(t, "asterai:b@0.1.0"),
			exports:   []wit.ExportedInterface{{Name: "asterai:fs/fs@1.0.0"}},
		},
	}
	conflicts := environment.ConflictingExports(components)
	assert.Empty(t, conflicts)
}

func TestExtractPackageIDViaUnsatisfiedImports(t *testing.T) {
	components := []environment.Reflector{
		fakeComponent{
			component: mustComponent(t, "asterai:app@0.1.0"),
			imports:   []wit.ImportedInterface{{Name: "bare-name"}},
		},
	}
	missing := environment.UnsatisfiedImportPackages(components)
	assert.Empty(t, missing)
}
