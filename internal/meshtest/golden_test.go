package meshtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/meshbridge/internal/console"
	"github.com/roach88/meshbridge/internal/mesh"
	"github.com/roach88/meshbridge/internal/scenario"
	"github.com/roach88/meshbridge/internal/trace"
)

func TestRunWithGolden_SimpleChain(t *testing.T) {
	scn, err := scenario.Load("testdata/simple_chain.yaml")
	require.NoError(t, err)

	// First run with -update to create the golden file:
	//   go test ./internal/meshtest -run TestRunWithGolden_SimpleChain -update
	require.NoError(t, RunWithGolden(t, scn))
}

func TestRunWithGolden_FailingRun(t *testing.T) {
	scn, err := scenario.Load("testdata/failing_run.yaml")
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, scn))
}

func TestRunWithGolden_PlanFailure(t *testing.T) {
	scn, err := scenario.Load("testdata/plan_failure.yaml")
	require.NoError(t, err)

	require.NoError(t, RunWithGolden(t, scn))
}

func TestTraceSnapshotDeterminism(t *testing.T) {
	// Two marshals of the same snapshot must be byte-identical; map
	// iteration order must not leak into the serialized form.
	scn, err := scenario.Load("testdata/simple_chain.yaml")
	require.NoError(t, err)

	run := func() []byte {
		t.Helper()
		con := console.NewEventConsole()
		var events []console.Event
		con.AddHandler(func(ev console.Event) {
			events = append(events, ev)
		})
		eng := New(scn, con)

		plan, err := eng.BuildPlan(scn.Environment, mesh.PlanOptions{})
		require.NoError(t, err)
		require.NoError(t, eng.ApplyPlan(plan, ""))
		require.NoError(t, eng.Run(scn.Environment, mesh.RunOptions{}))

		snapshot := TraceSnapshot{
			ScenarioName: scn.Name,
			Environment:  scn.Environment,
			Events:       events,
		}
		data, err := trace.MarshalPayload(snapshot.toCanonicalMap())
		require.NoError(t, err)
		return data
	}

	first := run()
	second := run()
	require.Equal(t, string(first), string(second))
}
