package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"kwangun/internal/mangle"
	"kwangun/internal/store"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Load readings from a YAML list into the store",
		Long: `Imports readings from a YAML list of feature maps:

  - 字: 東
    纽: 端
    呼: 開
    等: 一
    韵: 東
    声: 平`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			imported, err := s.Import(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d readings into %s\n", len(imported), s.Path())
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write every stored reading as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			all, err := s.All(ctx)
			if err != nil {
				return err
			}
			data, err := store.ExportReadings(all)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// loadEngine builds the reading engine over every stored reading.
func loadEngine(ctx context.Context) (*mangle.Engine, error) {
	d, err := newDeriver(cfg)
	if err != nil {
		return nil, err
	}

	s, err := openStore()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	readings, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := mangle.NewReadingEngine(mangle.Config{
		FactLimit:    cfg.Mangle.FactLimit,
		QueryTimeout: cfg.GetQueryTimeout(),
	}, cfg.Mangle.SchemaPath)
	if err != nil {
		return nil, err
	}
	if err := engine.LoadReadings(ctx, readings, d, cfg.Derive.Workers); err != nil {
		return nil, err
	}
	return engine, nil
}

func newQueryCmd() *cobra.Command {
	var (
		asJSON bool
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "query [query]",
		Short: "Answer a Datalog query over the stored readings",
		Long: `Loads every stored reading, its transcription and its four-medial class
into the Mangle engine and answers a single-atom query.

Predicates:
  reading(ID, Char, Onset, Hu, Grade, Rhyme, Tone, Section, Fanqie)
  transcription(ID, Char, Transcription)
  medial(ID, Char, Class)
  homophone(A, B)
  same_rhyme_body(A, B)

Example:
  kwangun query 'homophone(A, B)'
  kwangun query 'transcription(ID, "東", P)'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			engine, err := loadEngine(ctx)
			if err != nil {
				return err
			}

			res, err := engine.Query(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printBindings(out, res)
			if stats {
				printStats(out, engine.GetStats())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print fact counts per predicate after the result")
	return cmd
}

func newFactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "facts [predicate]",
		Short: "List every fact of a predicate in Datalog syntax",
		Long: `Loads the stored readings like query and prints every fact of one
predicate, base or derived.

Example:
  kwangun facts homophone`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			engine, err := loadEngine(ctx)
			if err != nil {
				return err
			}
			facts, err := engine.GetFacts(args[0])
			if err != nil {
				return err
			}
			lines := make([]string, len(facts))
			for i, f := range facts {
				lines[i] = f.String()
			}
			sort.Strings(lines)
			out := cmd.OutOrStdout()
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
			return nil
		},
	}
}

func printBindings(w io.Writer, res *mangle.QueryResult) {
	if len(res.Bindings) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	fmt.Fprintln(w, strings.Join(res.Variables, "\t"))
	for _, row := range res.Bindings {
		vals := make([]string, len(res.Variables))
		for i, v := range res.Variables {
			vals[i] = fmt.Sprint(row[v])
		}
		fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	fmt.Fprintf(w, "%d results in %v\n", len(res.Bindings), res.Duration)
}

func printStats(w io.Writer, stats mangle.Stats) {
	preds := make([]string, 0, len(stats.PredicateCounts))
	for p := range stats.PredicateCounts {
		preds = append(preds, p)
	}
	sort.Strings(preds)
	for _, p := range preds {
		fmt.Fprintf(w, "%s\t%d\n", p, stats.PredicateCounts[p])
	}
}
