package tools

import (
	"sort"

	"github.com/pkg/errors"
)

const FetchUserDataName = "fetch_user_data"

// FetchUserDataArgs is declared to the model but has no local handler;
// calls to it are answered by the registry fallback.
type FetchUserDataArgs struct {
	UserID string `json:"user_id"`
}

func FetchUserDataDefinition() Definition {
	return NewDefinition[FetchUserDataArgs](FetchUserDataName, "Fetch information about the user.")
}

var catalog = map[string]func() Definition{
	CreativeVideoCreatorName: CreativeVideoCreatorDefinition,
	FetchUserDataName:        FetchUserDataDefinition,
}

// CatalogNames lists the tool declarations Select knows about.
func CatalogNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the declarations for names, in the given order.
func Select(names ...string) ([]Definition, error) {
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		mk, ok := catalog[name]
		if !ok {
			return nil, errors.Errorf("unknown tool %s", name)
		}
		defs = append(defs, mk())
	}
	return defs, nil
}

// DefaultDefinitions is the tool list used when a request declares none.
func DefaultDefinitions() []Definition {
	return []Definition{CreativeVideoCreatorDefinition()}
}
