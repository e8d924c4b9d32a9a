package environment

import (
	"sort"
	"strings"

	"github.com/asterai-io/asterai-sub000/component"
	"github.com/asterai-io/asterai-sub000/component/wit"
)

// Reflector is the subset of *component.Binary the dependency analyser
// needs, kept as an interface so tests can supply fakes without decoding
// real WASM binaries.
type Reflector interface {
	Component() component.Component
	ImportedInterfaces() []wit.ImportedInterface
	ExportedInterfaces() []wit.ExportedInterface
}

// ConflictingExport names an interface imported by some component in the
// set and exported by more than one, naming the conflicting providers in
// alphabetical order.
type ConflictingExport struct {
	Interface string
	Providers []string
}

// UnsatisfiedImportPackages returns, in first-seen order, the package IDs
// (e.g. "asterai:fs") imported by some component in components but
// neither host-provided nor exported by any component in the set. These
// must be resolved (auto-linked to another environment's component, or
// rejected) before the set can run.
func UnsatisfiedImportPackages(components []Reflector) []string {
	provided := make(map[string]struct{})
	for _, comp := range components {
		c := comp.Component()
		provided[c.Namespace()+":"+c.Name()] = struct{}{}
		for _, export := range comp.ExportedInterfaces() {
			if pkg, ok := extractPackageID(export.Name); ok {
				provided[pkg] = struct{}{}
			}
		}
	}

	missing := make([]string, 0)
	seen := make(map[string]struct{})
	for _, comp := range components {
		for _, imp := range comp.ImportedInterfaces() {
			pkg, ok := extractPackageID(imp.Name)
			if !ok {
				continue
			}
			if isHostProvided(pkg) {
				continue
			}
			if _, ok := provided[pkg]; ok {
				continue
			}
			if _, dup := seen[pkg]; dup {
				continue
			}
			seen[pkg] = struct{}{}
			missing = append(missing, pkg)
		}
	}
	return missing
}

// ConflictingExports returns every interface that is both imported by some
// component in the set and exported by more than one component in the
// set. Duplicate exports that nothing imports are harmless and are not
// reported.
func ConflictingExports(components []Reflector) []ConflictingExport {
	imported := make(map[string]struct{})
	for _, comp := range components {
		for _, imp := range comp.ImportedInterfaces() {
			pkg, ok := extractPackageID(imp.Name)
			if !ok || isHostProvided(pkg) {
				continue
			}
			imported[imp.Name] = struct{}{}
		}
	}

	exportProviders := make(map[string][]string)
	for _, comp := range components {
		c := comp.Component()
		compID := c.Namespace() + ":" + c.Name()
		for _, export := range comp.ExportedInterfaces() {
			if _, ok := imported[export.Name]; !ok {
				continue
			}
			exportProviders[export.Name] = append(exportProviders[export.Name], compID)
		}
	}

	conflicts := make([]ConflictingExport, 0)
	for iface, providers := range exportProviders {
		if len(providers) <= 1 {
			continue
		}
		sort.Strings(providers)
		conflicts = append(conflicts, ConflictingExport{Interface: iface, Providers: providers})
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Interface < conflicts[j].Interface })
	return conflicts
}

// isHostProvided reports whether package is supplied by the runtime host
// (WASI or asterai:host*) rather than by another component.
func isHostProvided(pkg string) bool {
	return strings.HasPrefix(pkg, "wasi:") || strings.HasPrefix(pkg, "asterai:host")
}

// extractPackageID extracts "namespace:package" from a fully qualified
// interface name like "namespace:package/interface@version".
func extractPackageID(interfaceName string) (string, bool) {
	pkg := interfaceName
	if idx := strings.Index(pkg, "/"); idx != -1 {
		pkg = pkg[:idx]
	}
	if idx := strings.Index(pkg, "@"); idx != -1 {
		pkg = pkg[:idx]
	}
	if !strings.Contains(pkg, ":") {
		return "", false
	}
	return pkg, true
}
