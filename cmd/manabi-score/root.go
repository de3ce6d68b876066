package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashita-ai/manabi/internal/service/maturity"
	"github.com/ashita-ai/manabi/internal/storage/seed"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type rootOptions struct {
	format string
	// now pins LastCalculated so output is reproducible in tests.
	now func() time.Time
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{now: func() time.Time { return time.Now().UTC() }}

	cmd := &cobra.Command{
		Use:   "manabi-score",
		Short: "Score school ICT policy maturity offline",
		Long: `manabi-score computes the same policy maturity and ICT readiness the
manabi server derives on every read, from a profile file on disk.

A profile file holds one school and its ICT reports:

  school:
    name: Kagarama Primary School
    district: Kicukiro
    environment: Urban
    ...
  reports:
    - date: 2024-03-12
      ...`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			switch opts.format {
			case formatTable, formatJSON, formatYAML:
				return nil
			default:
				return fmt.Errorf("--format must be %s, %s or %s, got %q", formatTable, formatJSON, formatYAML, opts.format)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", formatTable, "output format (table|json|yaml)")

	cmd.AddCommand(newScoreCmd(opts), newValidateCmd(), newDemoCmd(opts))
	return cmd
}

func newScoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score <profile-file>",
		Short: "Score one school profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			sc := computeScorecard(p, opts.now)
			if opts.format == formatTable {
				renderScorecard(cmd.OutOrStdout(), sc)
				return nil
			}
			return writeStructured(cmd.OutOrStdout(), opts.format, sc)
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profile-file>...",
		Short: "Check profile files without scoring them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				if _, err := loadProfile(path); err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n  %v\n", failStyle.Render("FAIL"), path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("ok"), path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d profile files invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newDemoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Rank the bundled demo schools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := seed.Demo()
			if err != nil {
				return err
			}
			cards := make([]scorecard, 0, len(ds.Schools))
			for _, s := range ds.Schools {
				p := profile{School: s, Reports: maturity.GetSchoolReports(s.ID, ds.Reports)}
				cards = append(cards, computeScorecard(p, opts.now))
			}
			rankScorecards(cards)
			if opts.format == formatTable {
				renderRanking(cmd.OutOrStdout(), cards)
				return nil
			}
			return writeStructured(cmd.OutOrStdout(), opts.format, cards)
		},
	}
}
