package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/entrhq/verify/pkg/scenario"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	emailField    = scenario.ByLabel("Email")
	passwordField = scenario.ByLabel("Password")
	signIn        = scenario.ByRole("button", "Sign In").Exactly()
	welcome       = scenario.ByRole("heading", "Welcome to ConnectSphere")
	html          = scenario.CSS("html")
)

func loginScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.New("login").
		Navigate("http://app.test/auth", "").
		Fill(emailField, "testuser@cozi.com").
		Fill(passwordField, "password123").
		Click(signIn).
		ExpectVisible(welcome).
		Artifact("login.png").
		Build()
	require.NoError(t, err)
	return sc
}

// signedInPage renders the dashboard after a successful sign in.
func signedInPage() *fakePage {
	p := newFakePage()
	p.visible[welcome.String()] = true
	return p
}

func newTestRunner(t *testing.T, b Browser, options ...Option) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	return New(b, Options{
		OutputDir:          dir,
		Headless:           true,
		Viewport:           scenario.Viewport{Width: 1280, Height: 720},
		Timeout:            5 * time.Second,
		FailureScreenshots: true,
	}, options...), dir
}

func TestRun_Success(t *testing.T) {
	page := signedInPage()
	page.console = []ConsoleEntry{
		{Type: "log", Text: "render"},
		{Type: ConsoleWarning, Text: "deprecated prop"},
		{Type: ConsolePageError, Text: "ReferenceError: x is not defined"},
	}
	obs := &recordingObserver{}
	r, dir := newTestRunner(t, &fakeBrowser{page: page}, WithObserver(obs))

	res, err := r.Run(context.Background(), loginScenario(t))
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Passed())
	assert.Empty(t, res.Error)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Steps, 5)
	for _, s := range res.Steps {
		assert.True(t, s.Passed, s.Description)
	}

	artifact := filepath.Join(dir, "login.png")
	assert.Equal(t, artifact, res.Artifact)
	assert.FileExists(t, artifact)
	// exactly one file: the success artifact
	assert.Equal(t, []string{artifact}, page.shots)

	assert.Equal(t, "testuser@cozi.com", page.filled[emailField.String()])
	assert.Equal(t, "password123", page.filled[passwordField.String()])
	assert.Equal(t, 1, page.closed)

	require.Len(t, res.Console, 2)
	assert.Equal(t, "[WARNING] deprecated prop", res.Console[0].String())
	assert.Equal(t, "[PAGEERROR] ReferenceError: x is not defined", res.Console[1].String())

	require.Len(t, obs.started, 1)
	assert.Contains(t, obs.started[0], res.RunID)
	assert.Len(t, obs.steps, 5)
}

func TestRun_AssertionFailure(t *testing.T) {
	page := newFakePage() // heading never renders
	r, dir := newTestRunner(t, &fakeBrowser{page: page})

	res, err := r.Run(context.Background(), loginScenario(t))
	require.Error(t, err)
	require.NotNil(t, res)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, KindAssertion, stepErr.Kind)
	assert.Equal(t, 4, stepErr.Index)
	assert.True(t, stepErr.Timeout())
	assert.Contains(t, err.Error(), "Welcome to ConnectSphere")
	assert.Contains(t, err.Error(), "step 5")

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, err.Error(), res.Error)
	assert.Empty(t, res.Artifact)
	assert.NoFileExists(t, filepath.Join(dir, "login.png"))

	assert.Equal(t, filepath.Join(dir, "login.failed.png"), res.FailureScreenshot)
	assert.FileExists(t, res.FailureScreenshot)
	assert.Equal(t, 1, page.closed)

	require.Len(t, res.Steps, 5)
	assert.False(t, res.Steps[4].Passed)
	assert.NotEmpty(t, res.Steps[4].Error)
}

func TestRun_FailureKinds(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(p *fakePage)
		wantKind  ErrorKind
		wantIndex int
	}{
		{
			name:      "server unreachable",
			setup:     func(p *fakePage) { p.unreachable["http://app.test/auth"] = true },
			wantKind:  KindNavigation,
			wantIndex: 0,
		},
		{
			name:      "missing form field",
			setup:     func(p *fakePage) { p.missing[passwordField.String()] = true },
			wantKind:  KindLocator,
			wantIndex: 2,
		},
		{
			name:      "missing button",
			setup:     func(p *fakePage) { p.missing[signIn.String()] = true },
			wantKind:  KindLocator,
			wantIndex: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := signedInPage()
			tt.setup(page)
			r, _ := newTestRunner(t, &fakeBrowser{page: page})

			res, err := r.Run(context.Background(), loginScenario(t))
			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, tt.wantKind, stepErr.Kind)
			assert.Equal(t, tt.wantIndex, stepErr.Index)
			assert.Len(t, res.Steps, tt.wantIndex+1)
			assert.Empty(t, res.Artifact)
			assert.Equal(t, 1, page.closed)
		})
	}
}

func TestRun_Idempotent(t *testing.T) {
	page := newFakePage()
	r, _ := newTestRunner(t, &fakeBrowser{page: page})
	sc := loginScenario(t)

	var kinds []ErrorKind
	for i := 0; i < 2; i++ {
		res, err := r.Run(context.Background(), sc)
		var stepErr *StepError
		require.True(t, errors.As(err, &stepErr))
		kinds = append(kinds, stepErr.Kind)
		assert.Equal(t, StatusFailed, res.Status)
	}
	assert.Equal(t, []ErrorKind{KindAssertion, KindAssertion}, kinds)
	assert.Equal(t, 2, page.closed)
}

func TestRun_LaunchFailure(t *testing.T) {
	b := &fakeBrowser{openErr: errLaunch}
	r, _ := newTestRunner(t, b)

	res, err := r.Run(context.Background(), loginScenario(t))
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, KindLaunch, stepErr.Kind)
	assert.Equal(t, -1, stepErr.Index)
	assert.ErrorIs(t, err, errLaunch)
	assert.NotContains(t, err.Error(), "step")
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, res.Steps)
}

func TestRun_InvalidScenario(t *testing.T) {
	r, _ := newTestRunner(t, &fakeBrowser{page: newFakePage()})
	res, err := r.Run(context.Background(), &scenario.Scenario{Name: "empty"})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestRun_CanceledDuringWait(t *testing.T) {
	page := signedInPage()
	r, dir := newTestRunner(t, &fakeBrowser{page: page})
	sc, err := scenario.New("slow").
		Navigate("http://app.test/", "").
		Wait(time.Hour).
		ExpectVisible(welcome).
		Artifact("slow.png").
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := r.Run(ctx, sc)
	assert.Less(t, time.Since(start), 10*time.Second)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, KindCanceled, stepErr.Kind)
	assert.Equal(t, 1, stepErr.Index)
	assert.True(t, stepErr.Timeout())
	assert.Equal(t, 1, page.closed)
	assert.NoFileExists(t, filepath.Join(dir, "slow.png"))
	assert.Empty(t, res.Artifact)
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	page := signedInPage()
	r, _ := newTestRunner(t, &fakeBrowser{page: page})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, loginScenario(t))
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, KindCanceled, stepErr.Kind)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, page.calls)
	assert.Equal(t, 1, page.closed)
}

func TestRun_Timeouts(t *testing.T) {
	page := signedInPage()
	page.classes[html.String()] = "dark"
	r, _ := newTestRunner(t, &fakeBrowser{page: page})

	sc, err := scenario.New("theme").
		Navigate("http://app.test/", scenario.WaitNetworkIdle).
		Click(scenario.ByTestID("theme-toggle")).
		ExpectClass(html, "dark").Within(time.Second).
		Artifact("theme.png").
		Build()
	require.NoError(t, err)

	_, err = r.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), page.timeouts["goto http://app.test/ networkidle"])
	assert.Equal(t, 5*time.Second, page.timeouts["click "+scenario.ByTestID("theme-toggle").String()])
	assert.Equal(t, time.Second, page.timeouts["class "+html.String()])
}

func TestRun_ClassMismatch(t *testing.T) {
	page := signedInPage()
	page.classes[html.String()] = "light"
	r, _ := newTestRunner(t, &fakeBrowser{page: page})

	sc := scenario.New("theme").
		Navigate("http://app.test/", "").
		ExpectClass(html, "dark").
		Artifact("theme.png").
		MustBuild()

	_, err := r.Run(context.Background(), sc)
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, KindAssertion, stepErr.Kind)
	assert.Contains(t, err.Error(), `"dark"`)
}

func TestRun_ScreenshotsAndViewport(t *testing.T) {
	page := signedInPage()
	page.content = "<html><body><h1>Sign In</h1></body></html>"
	b := &fakeBrowser{page: page}
	r, dir := newTestRunner(t, b)

	sc := scenario.New("mobile").
		Viewport(375, 667).
		Navigate("http://app.test/", "").
		Screenshot("shots/light.png").
		Artifact("shots/dark.png").
		DumpHTML().
		MustBuild()

	res, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	require.Len(t, b.opened, 1)
	assert.Equal(t, scenario.Viewport{Width: 375, Height: 667}, b.opened[0].Viewport)
	assert.True(t, b.opened[0].Headless)

	assert.Equal(t, []string{filepath.Join(dir, "shots", "light.png")}, res.Screenshots)
	assert.Equal(t, filepath.Join(dir, "shots", "dark.png"), res.Artifact)
	assert.FileExists(t, res.Artifact)
	assert.Equal(t, page.content, res.HTML)
}

func TestRun_FailureScreenshotsDisabled(t *testing.T) {
	page := newFakePage()
	dir := t.TempDir()
	r := New(&fakeBrowser{page: page}, Options{OutputDir: dir, Timeout: time.Second})

	res, err := r.Run(context.Background(), loginScenario(t))
	require.Error(t, err)
	assert.Empty(t, res.FailureScreenshot)
	assert.Empty(t, page.shots)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_CloseErrorIsWarning(t *testing.T) {
	page := signedInPage()
	page.closeErr = errors.New("target closed")
	r, _ := newTestRunner(t, &fakeBrowser{page: page})

	res, err := r.Run(context.Background(), loginScenario(t))
	require.NoError(t, err)
	assert.True(t, res.Passed())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "target closed")
}

func TestFailurePath(t *testing.T) {
	assert.Equal(t, "shots/login.failed.png", failurePath("shots/login.png"))
	assert.Equal(t, "login.failed", failurePath("login"))
}

func TestFilterConsole(t *testing.T) {
	in := []ConsoleEntry{
		{Type: "log", Text: "a"},
		{Type: "info", Text: "b"},
		{Type: ConsoleError, Text: "c"},
		{Type: "debug", Text: "d"},
	}
	assert.Equal(t, []ConsoleEntry{{Type: ConsoleError, Text: "c"}}, FilterConsole(in))
	assert.Nil(t, FilterConsole(nil))
}
