package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/patchwire/internal/ir"
)

// RunWithGolden executes a scenario and compares its deliveries against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden comparison needs reproducible object ids, so the scenario should
// set an actor. Returns error if scenario execution fails; a mismatch fails
// t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's deliveries against the golden
// file for name, without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalDeliveries(name, result.Deliveries)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// MarshalDeliveries renders deliveries as canonical JSON, the golden file
// format.
func MarshalDeliveries(name string, deliveries []Delivery) ([]byte, error) {
	return ir.MarshalCanonical(toCanonicalMap(name, deliveries))
}
