package main

import (
	"errors"
	"fmt"

	"github.com/agusespa/prsentinel/internal/evaluation"
	"github.com/agusespa/prsentinel/internal/logger"
	"github.com/agusespa/prsentinel/pkg/config"
	"github.com/spf13/cobra"
)

var (
	evalSuite      string
	evalRuns       int
	evalCases      []string
	evalResultsDir string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the review pipeline against a suite of known cases",
	Long: `Run every case of an evaluation suite through the review pipeline, with the configured
analyzers and LLM reviewer, and score the findings against each case's expectations.
Repeat runs to measure how consistent an LLM configuration is.`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalSuite, "suite", "evaluation/suite.yaml", "evaluation suite file")
	evalCmd.Flags().IntVar(&evalRuns, "runs", 1, "number of runs over the suite")
	evalCmd.Flags().StringSliceVar(&evalCases, "case", nil, "only run the named cases")
	evalCmd.Flags().StringVar(&evalResultsDir, "results-dir", "evaluation/results", "directory for JSON results")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(resolveConfigFile())
	if err != nil {
		return err
	}
	log := logger.NewConsole(cfg.LogLevel, "prsentinel")

	suite, err := evaluation.LoadSuite(evalSuite)
	if err != nil {
		return err
	}
	cases := suite.Filter(evalCases...)
	if len(cases) == 0 {
		return errors.New("no matching cases in suite")
	}

	p, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	evaluator := evaluation.NewEvaluator(p, evaluation.NewSimpleScorer(), log)
	result, err := evaluator.Evaluate(cmd.Context(), suite, cases, evalRuns, evalLabel(cfg))
	if err != nil {
		return err
	}

	result.Print(cmd.OutOrStdout())
	path, err := result.Save(evalResultsDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", path)
	return nil
}

// evalLabel names the configuration under test in result files.
func evalLabel(cfg *config.Config) string {
	if !cfg.AIEnabled() {
		return "static"
	}
	label := cfg.LLM.Provider + "/" + cfg.LLM.Model
	if cfg.LLM.PromptVariant != "" {
		label += " " + cfg.LLM.PromptVariant
	}
	return label
}
