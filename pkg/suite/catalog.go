package suite

import (
	"fmt"

	"github.com/entrhq/verify/pkg/scenario"
)

// Catalog returns the built-in scenarios plus those declared in the given
// YAML files. A name may only be defined once.
func Catalog(files ...string) (map[string]*scenario.Scenario, error) {
	set := scenario.Builtin()
	origin := make(map[string]string, len(set))
	for name := range set {
		origin[name] = "built-in"
	}

	for _, path := range files {
		scenarios, err := scenario.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, sc := range scenarios {
			if prev, exists := origin[sc.Name]; exists {
				return nil, fmt.Errorf("scenario %q in %s is already defined (%s)", sc.Name, path, prev)
			}
			set[sc.Name] = sc
			origin[sc.Name] = path
		}
	}
	return set, nil
}
