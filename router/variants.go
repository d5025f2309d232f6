package router

import (
	"fmt"
	"sort"
)

// Route table variants. The application historically shipped three diverging
// router configurations; Full is the canonical one.
const (
	VariantFull    = "full"
	VariantMinimal = "minimal"
	VariantPartial = "partial"
)

// DefaultVariant is the canonical route table.
const DefaultVariant = VariantFull

var variants = map[string]func() *Table{
	VariantFull: func() *Table {
		return MustTable(
			Route{Path: "/", Component: "Main"},
			Route{Path: "/about", Component: "About"},
			Route{Path: "/page1", Component: "Page1"},
			Route{Path: "/page2", Component: "Page2"},
			Route{Path: "/page3", Component: "Page3"},
		)
	},
	VariantMinimal: func() *Table {
		return MustTable(
			Route{Path: "/", Component: "MainPageInfo"},
			Route{Path: "/about", Component: "About"},
		)
	},
	VariantPartial: func() *Table {
		return MustTable(
			Route{Path: "/", Component: "MainPageInfo"},
			Route{Path: "/about", Component: "About"},
			Route{Path: "/page1", Component: "Page1"},
			Route{Path: "/page2", Component: "Page2"},
		)
	},
}

// Variant returns a fresh copy of the named route table.
func Variant(name string) (*Table, error) {
	build, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown route table variant %q (known: %v)", name, Variants())
	}
	return build(), nil
}

// Variants lists the known variant names in sorted order.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
