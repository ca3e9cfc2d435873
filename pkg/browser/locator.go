package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/verify/pkg/scenario"
)

// locatorSource is the part of playwright.Page used to build locators.
type locatorSource interface {
	GetByLabel(text interface{}, options ...playwright.PageGetByLabelOptions) playwright.Locator
	GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator
	GetByTestId(testId interface{}) playwright.Locator
	GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator
	GetByPlaceholder(text interface{}, options ...playwright.PageGetByPlaceholderOptions) playwright.Locator
	Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator
}

// resolve maps a validated scenario locator onto a Playwright locator.
func resolve(src locatorSource, l scenario.Locator) playwright.Locator {
	var exact *bool
	if l.Exact {
		exact = playwright.Bool(true)
	}

	var loc playwright.Locator
	switch l.Kind {
	case scenario.LocateByLabel:
		loc = src.GetByLabel(l.Value, playwright.PageGetByLabelOptions{Exact: exact})
	case scenario.LocateByRole:
		opts := playwright.PageGetByRoleOptions{Exact: exact}
		if l.Name != "" {
			opts.Name = l.Name
		}
		loc = src.GetByRole(playwright.AriaRole(l.Value), opts)
	case scenario.LocateByTestID:
		loc = src.GetByTestId(l.Value)
	case scenario.LocateByText:
		loc = src.GetByText(l.Value, playwright.PageGetByTextOptions{Exact: exact})
	case scenario.LocateByPlaceholder:
		loc = src.GetByPlaceholder(l.Value, playwright.PageGetByPlaceholderOptions{Exact: exact})
	default:
		loc = src.Locator(l.Value)
	}

	switch {
	case l.Nth == 0:
		return loc.First()
	case l.Nth > 0:
		return loc.Nth(l.Nth)
	}
	return loc
}

// milliseconds converts a duration to Playwright's float milliseconds.
func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// optionalMilliseconds leaves the option unset for a zero duration so the
// page default applies.
func optionalMilliseconds(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	ms := milliseconds(d)
	return &ms
}
