package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/openclaw/clawctl/internal/configdoc"
)

// RunWithGolden executes the scenario and compares a canonical snapshot
// of its outcome against testdata/golden/<name>.golden. Regenerate the
// fixtures with `go test -update` when behavior changes intentionally.
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}

	snap, err := snapshot(scenario, result)
	if err != nil {
		t.Fatalf("scenario %s: snapshot: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snap)
	return result
}

// snapshot flattens the interesting parts of a run into one canonical
// JSON document. Timestamps, command ids and diff text stay out: only
// deterministic fields belong in a golden file.
func snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	commands := make([]any, len(scenario.Commands))
	for i, cmd := range scenario.Commands {
		commands[i] = cmd.Label
	}

	previewErrors := make([]any, 0, len(result.Preview.Errors))
	for _, e := range result.Preview.Errors {
		previewErrors = append(previewErrors, fmt.Sprintf("%s: %s", e.Label, e.Message))
	}

	before, err := canonicalize(result.Preview.ConfigBefore)
	if err != nil {
		return nil, err
	}
	after, err := canonicalize(result.Preview.ConfigAfter)
	if err != nil {
		return nil, err
	}

	return configdoc.MarshalCanonical(map[string]any{
		"scenario":      scenario.Name,
		"commands":      commands,
		"previewErrors": previewErrors,
		"configBefore":  before,
		"configAfter":   after,
		"apply": map[string]any{
			"ok":           result.Apply.OK,
			"appliedCount": result.Apply.AppliedCount,
			"rolledBack":   result.Apply.RolledBack,
		},
		"finalConfig": result.FinalConfig,
	})
}
