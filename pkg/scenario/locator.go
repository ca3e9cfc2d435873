package scenario

import (
	"fmt"
	"strings"
)

// LocatorKind identifies how a Locator queries the DOM.
type LocatorKind string

const (
	// LocateByLabel finds form controls by their associated label text.
	LocateByLabel LocatorKind = "label"
	// LocateByRole finds elements by ARIA role and accessible name.
	LocateByRole LocatorKind = "role"
	// LocateByTestID finds elements by their data-testid attribute.
	LocateByTestID LocatorKind = "test_id"
	// LocateByText finds elements by their visible text.
	LocateByText LocatorKind = "text"
	// LocateByPlaceholder finds inputs by placeholder text.
	LocateByPlaceholder LocatorKind = "placeholder"
	// LocateByCSS finds elements with a raw CSS selector.
	LocateByCSS LocatorKind = "css"
)

// NoNth marks a locator that does not narrow its matches to a single index.
const NoNth = -1

// Locator is a query used to find one DOM element.
type Locator struct {
	Kind  LocatorKind `yaml:"kind" json:"kind"`
	Value string      `yaml:"value" json:"value"`

	// Name is the accessible name for role locators.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Exact requires whole-string, case-sensitive matching of Value (or Name for roles).
	Exact bool `yaml:"exact,omitempty" json:"exact,omitempty"`

	// Nth selects one of several matches; NoNth keeps all of them.
	Nth int `yaml:"nth,omitempty" json:"nth,omitempty"`
}

// ByLabel locates a form control by label text.
func ByLabel(text string) Locator {
	return Locator{Kind: LocateByLabel, Value: text, Nth: NoNth}
}

// ByRole locates an element by ARIA role and accessible name.
func ByRole(role, name string) Locator {
	return Locator{Kind: LocateByRole, Value: role, Name: name, Nth: NoNth}
}

// ByTestID locates an element by data-testid.
func ByTestID(id string) Locator {
	return Locator{Kind: LocateByTestID, Value: id, Nth: NoNth}
}

// ByText locates an element by visible text.
func ByText(text string) Locator {
	return Locator{Kind: LocateByText, Value: text, Nth: NoNth}
}

// ByPlaceholder locates an input by placeholder.
func ByPlaceholder(text string) Locator {
	return Locator{Kind: LocateByPlaceholder, Value: text, Nth: NoNth}
}

// CSS locates elements with a CSS selector.
func CSS(selector string) Locator {
	return Locator{Kind: LocateByCSS, Value: selector, Nth: NoNth}
}

// First narrows the locator to its first match.
func (l Locator) First() Locator {
	l.Nth = 0
	return l
}

// Exactly switches the locator to exact matching.
func (l Locator) Exactly() Locator {
	l.Exact = true
	return l
}

// Validate reports whether the locator can be resolved.
func (l Locator) Validate() error {
	switch l.Kind {
	case LocateByLabel, LocateByRole, LocateByTestID, LocateByText, LocateByPlaceholder, LocateByCSS:
	case "":
		return fmt.Errorf("locator kind is required")
	default:
		return fmt.Errorf("unknown locator kind: %s", l.Kind)
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("%s locator requires a value", l.Kind)
	}
	if l.Nth < NoNth {
		return fmt.Errorf("locator nth must be %d or greater", NoNth)
	}
	return nil
}

// String describes the locator for logs and failure messages.
func (l Locator) String() string {
	var b strings.Builder
	switch l.Kind {
	case LocateByRole:
		fmt.Fprintf(&b, "role=%s", l.Value)
		if l.Name != "" {
			fmt.Fprintf(&b, "[name=%q]", l.Name)
		}
	case LocateByCSS:
		b.WriteString(l.Value)
	default:
		fmt.Fprintf(&b, "%s=%q", l.Kind, l.Value)
	}
	if l.Exact {
		b.WriteString(" (exact)")
	}
	if l.Nth >= 0 {
		fmt.Fprintf(&b, " >> nth=%d", l.Nth)
	}
	return b.String()
}

func (l Locator) expand(mapping func(string) string) Locator {
	l.Value = expandString(l.Value, mapping)
	l.Name = expandString(l.Name, mapping)
	return l
}
