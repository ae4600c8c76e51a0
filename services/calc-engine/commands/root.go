// Package commands implements the calc-engine command line.
package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"property_projection/pkg/core/assumption"
	"property_projection/pkg/core/pipeline"
	"property_projection/pkg/core/projection"
	"property_projection/pkg/core/utils"
	"property_projection/pkg/core/valuation"
	"property_projection/pkg/models"
)

// Input is the document read from --data or --file.
type Input struct {
	Property    models.PropertySnapshot `json:"property"`
	Assumptions *models.Assumptions     `json:"assumptions,omitempty"`
	Preset      string                  `json:"preset,omitempty"`
}

// RootCmd builds the calc-engine command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "calc-engine",
		Short:         "Project property cashflows, KPIs and reports",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().String("data", "", "JSON or Hjson input document")
	root.PersistentFlags().String("file", "", "path to a JSON or Hjson input document (- for stdin)")
	root.PersistentFlags().String("preset", "", "assumption preset used when the input has no assumptions")
	root.PersistentFlags().String("presets-dir", "", "directory of extra YAML/Hjson presets")
	root.PersistentFlags().Int("horizon", projection.DefaultHorizonYears, "projection horizon in years")
	root.PersistentFlags().String("multi-loan", string(projection.PerLoan), "multi-loan mode: per_loan or representative")
	root.PersistentFlags().String("milestones", string(valuation.BasisPerYear), "milestone basis: per_year or cumulative")

	root.AddCommand(
		ProjectCmd(),
		KPICmd(),
		ReportCmd(),
		PresetsCmd(),
	)
	return root
}

// scenarios returns the built-in presets plus any from --presets-dir.
func scenarios(cmd *cobra.Command) (*assumption.ScenarioSet, error) {
	set := assumption.NewScenarioSet()
	dir, _ := cmd.Flags().GetString("presets-dir")
	if dir != "" {
		if _, err := set.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// readInput loads and validates the input document and resolves assumptions.
func readInput(cmd *cobra.Command) (models.PropertySnapshot, models.Assumptions, error) {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")

	var raw []byte
	switch {
	case data != "" && file != "":
		return models.PropertySnapshot{}, models.Assumptions{}, fmt.Errorf("use either --data or --file, not both")
	case data != "":
		raw = []byte(data)
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return models.PropertySnapshot{}, models.Assumptions{}, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return models.PropertySnapshot{}, models.Assumptions{}, fmt.Errorf("read input: %w", err)
		}
		raw = b
	default:
		return models.PropertySnapshot{}, models.Assumptions{}, fmt.Errorf("no input: pass --data or --file")
	}

	var in Input
	if _, err := utils.DecodeLenient(raw, &in); err != nil {
		return models.PropertySnapshot{}, models.Assumptions{}, err
	}
	if err := in.Property.Validate(); err != nil {
		return models.PropertySnapshot{}, models.Assumptions{}, fmt.Errorf("invalid property: %w", err)
	}

	if in.Assumptions != nil {
		if err := in.Assumptions.Validate(); err != nil {
			return models.PropertySnapshot{}, models.Assumptions{}, fmt.Errorf("invalid assumptions: %w", err)
		}
		return in.Property, *in.Assumptions, nil
	}

	preset := in.Preset
	if flag, _ := cmd.Flags().GetString("preset"); flag != "" {
		preset = flag
	}
	if preset == "" {
		preset = assumption.PresetBase
	}
	set, err := scenarios(cmd)
	if err != nil {
		return models.PropertySnapshot{}, models.Assumptions{}, err
	}
	sc, err := set.Get(preset)
	if err != nil {
		return models.PropertySnapshot{}, models.Assumptions{}, err
	}
	return in.Property, sc.Assumptions, nil
}

// orchestrator builds a cache-less orchestrator from the persistent flags.
func orchestrator(cmd *cobra.Command) (*pipeline.Orchestrator, error) {
	horizon, _ := cmd.Flags().GetInt("horizon")
	mode, _ := cmd.Flags().GetString("multi-loan")
	basis, _ := cmd.Flags().GetString("milestones")

	if horizon < 1 || horizon > 100 {
		return nil, fmt.Errorf("--horizon must be between 1 and 100")
	}
	switch projection.MultiLoanMode(mode) {
	case projection.PerLoan, projection.RepresentativeLoan:
	default:
		return nil, fmt.Errorf("unknown --multi-loan mode %q", mode)
	}
	switch valuation.MilestoneBasis(basis) {
	case valuation.BasisPerYear, valuation.BasisCumulative:
	default:
		return nil, fmt.Errorf("unknown --milestones basis %q", basis)
	}

	return pipeline.NewOrchestrator(pipeline.Config{
		Projection:     projection.Options{HorizonYears: horizon, MultiLoanMode: projection.MultiLoanMode(mode)},
		MilestoneBasis: valuation.MilestoneBasis(basis),
		Concurrency:    1,
	}, nil, nil), nil
}

// now resolves the default start year and milestone achievement.
var now = time.Now

// run reads input and projects it.
func run(cmd *cobra.Command) (pipeline.PropertyResult, models.PropertySnapshot, error) {
	property, a, err := readInput(cmd)
	if err != nil {
		return pipeline.PropertyResult{}, property, err
	}
	orch, err := orchestrator(cmd)
	if err != nil {
		return pipeline.PropertyResult{}, property, err
	}
	orch.SetClock(now)
	res, err := orch.ProjectOne(cmd.Context(), property, a)
	return res, property, err
}
