package suite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/verify/pkg/runner"
	"github.com/entrhq/verify/pkg/scenario"
)

// stubRunner fails the scenarios named in fail and records what it ran.
type stubRunner struct {
	fail     map[string]bool
	ran      []*scenario.Scenario
	deadline []bool
	onRun    func()
}

func (r *stubRunner) Run(ctx context.Context, sc *scenario.Scenario) (*runner.Result, error) {
	r.ran = append(r.ran, sc)
	_, hasDeadline := ctx.Deadline()
	r.deadline = append(r.deadline, hasDeadline)
	if r.onRun != nil {
		r.onRun()
	}

	res := &runner.Result{Scenario: sc.Name, Status: runner.StatusPassed, Artifact: sc.Artifact}
	if r.fail[sc.Name] {
		err := &runner.StepError{Scenario: sc.Name, Index: 0, Step: sc.Steps[0], Kind: runner.KindAssertion, Err: runner.ErrTimeout}
		res.Status = runner.StatusFailed
		res.Artifact = ""
		res.Error = err.Error()
		return res, err
	}
	return res, nil
}

type finished struct {
	names []string
	errs  []error
}

func (f *finished) ScenarioFinished(res *runner.Result, err error) {
	f.names = append(f.names, res.Scenario)
	f.errs = append(f.errs, err)
}

func testScenarios(names ...string) []*scenario.Scenario {
	var out []*scenario.Scenario
	for _, name := range names {
		out = append(out, scenario.New(name).
			Navigate("/auth", "").
			ExpectVisible(scenario.ByRole("heading", "${dashboard_heading}")).
			Artifact(name+".png").
			MustBuild())
	}
	return out
}

var testVars = map[string]string{"dashboard_heading": "Welcome to ConnectSphere"}

func TestSuite_Run(t *testing.T) {
	r := &stubRunner{fail: map[string]bool{"b": true}}
	obs := &finished{}
	s := New(r, Options{BaseURL: "http://127.0.0.1:8080", Vars: testVars}, obs, nil)

	sum := s.Run(context.Background(), testScenarios("a", "b", "c"))

	// a failure does not stop the suite
	require.Len(t, r.ran, 3)
	assert.Equal(t, 2, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 3, sum.Total())
	assert.False(t, sum.OK())
	assert.Equal(t, 1, sum.ExitCode())
	assert.False(t, sum.EndTime.Before(sum.StartTime))

	assert.Equal(t, []string{"a", "b", "c"}, obs.names)
	assert.NoError(t, obs.errs[0])
	var stepErr *runner.StepError
	assert.True(t, errors.As(obs.errs[1], &stepErr))

	// scenarios reach the runner expanded
	first := r.ran[0]
	assert.Equal(t, "http://127.0.0.1:8080/auth", first.Steps[0].URL)
	assert.Equal(t, "Welcome to ConnectSphere", first.Steps[1].Target.Name)
}

func TestSuite_AllPass(t *testing.T) {
	s := New(&stubRunner{}, Options{BaseURL: "http://127.0.0.1:8080", Vars: testVars}, nil, nil)
	sum := s.Run(context.Background(), testScenarios("a"))
	assert.True(t, sum.OK())
	assert.Equal(t, 0, sum.ExitCode())
}

func TestSuite_EmptyIsNotOK(t *testing.T) {
	s := New(&stubRunner{}, Options{}, nil, nil)
	sum := s.Run(context.Background(), nil)
	assert.False(t, sum.OK())
	assert.Equal(t, 1, sum.ExitCode())
}

func TestSuite_UndefinedVariable(t *testing.T) {
	r := &stubRunner{}
	obs := &finished{}
	s := New(r, Options{BaseURL: "http://127.0.0.1:8080"}, obs, nil)

	sum := s.Run(context.Background(), testScenarios("a"))

	assert.Empty(t, r.ran)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, runner.StatusFailed, sum.Results[0].Status)
	assert.Contains(t, sum.Results[0].Error, "dashboard_heading")
	assert.Error(t, obs.errs[0])
}

func TestSuite_Timeout(t *testing.T) {
	r := &stubRunner{}
	s := New(r, Options{BaseURL: "http://127.0.0.1:8080", Vars: testVars, Timeout: time.Minute}, nil, nil)
	s.Run(context.Background(), testScenarios("a"))
	assert.Equal(t, []bool{true}, r.deadline)

	r = &stubRunner{}
	s = New(r, Options{BaseURL: "http://127.0.0.1:8080", Vars: testVars}, nil, nil)
	s.Run(context.Background(), testScenarios("a"))
	assert.Equal(t, []bool{false}, r.deadline)
}

func TestSuite_CancelSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &stubRunner{onRun: cancel}
	s := New(r, Options{BaseURL: "http://127.0.0.1:8080", Vars: testVars}, nil, nil)

	sum := s.Run(ctx, testScenarios("a", "b", "c"))
	assert.Len(t, r.ran, 1)
	assert.Equal(t, []string{"b", "c"}, sum.Skipped)
	assert.False(t, sum.OK())
}

func TestSelector(t *testing.T) {
	set := scenario.Builtin()

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "no patterns selects all",
			patterns: nil,
			want:     scenario.Names(set),
		},
		{
			name:     "prefix glob",
			patterns: []string{"dark-mode-*"},
			want:     []string{"dark-mode-dashboard", "dark-mode-mobile"},
		},
		{
			name:     "comma separated",
			patterns: []string{"simple-test-page,header-test-page"},
			want:     []string{"header-test-page", "simple-test-page"},
		},
		{
			name:     "exclusion",
			patterns: []string{"*-page", "!group-*"},
			want:     []string{"header-test-page", "simple-test-page"},
		},
		{
			name:     "alternatives",
			patterns: []string{"{debug-auth,final-verification}"},
			want:     []string{"debug-auth", "final-verification"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := NewSelector(tt.patterns...)
			require.NoError(t, err)
			got, err := sel.Select(set)
			require.NoError(t, err)

			var names []string
			for _, sc := range got {
				names = append(names, sc.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSelector_Errors(t *testing.T) {
	_, err := NewSelector("[unclosed")
	assert.Error(t, err)

	sel, err := NewSelector("nothing-*")
	require.NoError(t, err)
	_, err = sel.Select(scenario.Builtin())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug-auth")
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scenarios:
  - name: profile-page
    artifact: profile.png
    steps:
      - navigate: /profile
      - expect_visible: {role: heading, name: Profile}
`), 0600))

	set, err := Catalog(path)
	require.NoError(t, err)
	assert.Len(t, set, len(scenario.Builtin())+1)
	assert.Contains(t, set, "profile-page")

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte(`
scenarios:
  - name: debug-auth
    artifact: x.png
    steps:
      - navigate: /auth
`), 0600))
	_, err = Catalog(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")

	_, err = Catalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
