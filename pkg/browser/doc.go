// Package browser drives Chromium through Playwright for verification runs.
//
// The package is built around two types:
//
//  1. Launcher: owns the Playwright driver and opens one Session per run
//  2. Session: a browser, its context and a single page, implementing
//     runner.Page
//
// # Session Lifecycle
//
// Every run gets a fresh browser so runs never share cookies, storage or
// theme state:
//
//  1. Open: Launcher.Open launches Chromium with the requested viewport
//  2. Use: the runner navigates, fills, clicks and asserts on the page
//  3. Close: Session.Close releases the page, context and browser
//
// Close is idempotent. Launcher.Shutdown closes any session still open and
// stops the driver.
//
// # Locators
//
// scenario.Locator values map onto Playwright's user-facing locators
// (GetByLabel, GetByRole, GetByTestId, GetByText, GetByPlaceholder) or a CSS
// selector. Playwright timeouts are reported as runner.ErrTimeout.
//
// # Example Usage
//
//	launcher := browser.NewLauncher(browser.LauncherOptions{})
//	if err := launcher.Initialize(); err != nil {
//	    return err
//	}
//	defer launcher.Shutdown()
//
//	page, err := launcher.Open(ctx, runner.PageOptions{
//	    Headless: true,
//	    Viewport: scenario.Viewport{Width: 1280, Height: 720},
//	})
//	if err != nil {
//	    return err
//	}
//	defer page.Close()
package browser
