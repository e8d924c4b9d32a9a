package component

import "strings"

// Set is a de-duplicated collection of components, such as the set that
// makes up one environment. Grounded on asterai/src/component/set.rs.
type Set map[Component]struct{}

// ParseSet parses a comma-separated list of "namespace:name@version"
// references into a Set.
func ParseSet(s string) (Set, error) {
	set := make(Set)
	for _, part := range strings.Split(s, ",") {
		c, err := Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		set[c] = struct{}{}
	}
	return set, nil
}

// Slice returns the set's members as a slice, in no particular order.
func (s Set) Slice() []Component {
	out := make([]Component, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	return out
}
