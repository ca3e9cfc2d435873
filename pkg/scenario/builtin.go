package scenario

import (
	"sort"
	"time"
)

// Variables referenced by the built-in scenarios.
const (
	VarEmail            = "email"
	VarPassword         = "password"
	VarDashboardHeading = "dashboard_heading"
)

// categoryCard matches the clickable category and group cards.
const categoryCard = ".group.cursor-pointer.overflow-hidden"

// login appends the sign-in sequence shared by the dashboard scenarios.
func login(b *Builder) *Builder {
	return b.
		Navigate("/auth", "").
		Fill(ByLabel("Email"), "${"+VarEmail+"}").
		Fill(ByLabel("Password"), "${"+VarPassword+"}").
		Click(ByRole("button", "Sign In").Exactly()).
		ExpectVisible(ByRole("heading", "${"+VarDashboardHeading+"}"))
}

// switchToDark opens the theme menu and picks the dark theme.
func switchToDark(b *Builder) *Builder {
	return b.
		Click(ByTestID("theme-toggle")).
		Click(ByRole("menuitem", "Dark")).
		ExpectClass(CSS("html"), "dark").Within(time.Second)
}

// Builtin returns the stock scenarios keyed by name. Every call returns
// fresh copies.
func Builtin() map[string]*Scenario {
	all := []*Scenario{
		New("debug-auth").
			Describe("Load the auth page, capture it and dump its HTML").
			Navigate("/auth", WaitNetworkIdle).
			Wait(2 * time.Second).
			Artifact("debug_auth_page.png").
			DumpHTML().
			MustBuild(),

		login(New("debug-dashboard").
			Describe("Sign in and capture the dashboard after data fetching settles")).
			Wait(3 * time.Second).
			Artifact("debug_dashboard.png").
			MustBuild(),

		switchToDark(login(New("dark-mode-dashboard").
			Describe("Sign in and switch the dashboard to the dark theme")).
			Screenshot("dark-mode-dashboard_light.png")).
			Wait(time.Second).
			Artifact("dark-mode-dashboard_dark.png").
			MustBuild(),

		switchToDark(New("dark-mode-mobile").
			Describe("Toggle the dark theme from the mobile navigation menu").
			Viewport(375, 667).
			Navigate("/auth", "").
			ExpectVisible(ByRole("heading", "COZI")).
			Screenshot("dark-mode-mobile_light.png").
			Click(ByLabel("Open navigation menu"))).
			Wait(time.Second).
			Artifact("dark-mode-mobile_dark.png").
			MustBuild(),

		login(New("final-verification").
			Describe("Sign in and capture the dashboard")).
			Wait(2 * time.Second).
			Artifact("verification.png").
			MustBuild(),

		login(New("group-page").
			Describe("Open the first category and its first group")).
			Click(CSS(categoryCard).First()).
			ExpectVisible(ByRole("heading", "Groups in this category")).
			Click(CSS(categoryCard).First()).
			ExpectVisible(ByPlaceholder("What's on your mind?")).
			Wait(2 * time.Second).
			Artifact("group_page_verification.png").
			MustBuild(),

		New("header-test-page").
			Describe("Render the header test page").
			Navigate("/header-test", "").
			ExpectVisible(CSS("header[role='navigation']")).
			Artifact("header_test_page_verification.png").
			MustBuild(),

		New("simple-test-page").
			Describe("Render the simple test page").
			Navigate("/simple-test", "").
			ExpectVisible(ByRole("heading", "Hello World")).
			Artifact("simple_test_page_verification.png").
			MustBuild(),
	}

	out := make(map[string]*Scenario, len(all))
	for _, sc := range all {
		out[sc.Name] = sc
	}
	return out
}

// Names returns the sorted names of a scenario set.
func Names(set map[string]*Scenario) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
