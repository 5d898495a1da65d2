package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kwangun/internal/config"
	"kwangun/internal/logging"
	"kwangun/internal/predicate"
	"kwangun/internal/rules"
	"kwangun/internal/sihu"
	"kwangun/internal/store"
	"kwangun/internal/transcribe"
	"kwangun/internal/types"
)

// recordFlags collects one reading from the command line.
type recordFlags struct {
	char    string
	onset   string
	hu      string
	grade   string
	rhyme   string
	tone    string
	group   string
	section string
	fanqie  string
}

func (f *recordFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.onset, "onset", "", "Onset class (纽), e.g. 幫")
	fs.StringVar(&f.hu, "hu", "", "Articulation (呼): 開 or 合")
	fs.StringVar(&f.grade, "grade", "", "Grade (等): 一 二 三 四")
	fs.StringVar(&f.rhyme, "rhyme", "", "Rhyme (韵), optionally with class letter, e.g. 支A")
	fs.StringVar(&f.tone, "tone", "", "Tone (声): 平 上 去 入")
	fs.StringVar(&f.group, "group", "", "Consonant group (组)")
	fs.StringVar(&f.section, "section", "", "Rhyme supercategory (摄)")
	fs.StringVar(&f.fanqie, "fanqie", "", "Fanqie spelling (反切)")
	fs.StringVar(&f.char, "char", "", "Use the stored readings of this character instead of flags")
}

func (f *recordFlags) record() types.Record {
	return types.NewRecord(map[types.Feature]string{
		types.FeatureOnset:   f.onset,
		types.FeatureHu:      f.hu,
		types.FeatureGrade:   f.grade,
		types.FeatureRhyme:   f.rhyme,
		types.FeatureTone:    f.tone,
		types.FeatureGroup:   f.group,
		types.FeatureSection: f.section,
		types.FeatureFanqie:  f.fanqie,
	})
}

// readings returns the stored readings for --char, or the flag record as a
// single unsaved reading.
func (f *recordFlags) readings(cmd *cobra.Command) ([]store.Reading, error) {
	if f.char == "" {
		return []store.Reading{{Record: f.record()}}, nil
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := openStore()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	found, err := s.ByChar(ctx, f.char)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no stored readings for %s: %w", f.char, store.ErrNotFound)
	}
	return found, nil
}

func openStore() (*store.Store, error) {
	return store.Open(cfg.Store.Driver, cfg.Store.Path)
}

// newDeriver builds a deriver from the built-in tables with the configured
// rule data applied over them.
func newDeriver(c *config.Config) (*transcribe.Deriver, error) {
	if !c.Rules.HasOverrides() {
		return transcribe.Default(), nil
	}

	var opts []transcribe.Option
	if c.Rules.OnsetsFile != "" {
		t, err := overrideTable(c.Rules.OnsetsFile, "onset", transcribe.Onsets)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transcribe.WithOnsets(t))
	}
	if c.Rules.TonesFile != "" {
		t, err := overrideTable(c.Rules.TonesFile, "tone", transcribe.Tones)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transcribe.WithTones(t))
	}

	composite, flat := transcribe.CompositeRhymes, transcribe.FlatRhymes
	if c.Rules.RhymesFile != "" {
		l, err := rules.LoadList(c.Rules.RhymesFile)
		if err != nil {
			return nil, err
		}
		ev := predicate.Default()
		for _, cond := range l.Conditions() {
			if unknown := ev.Unknown(cond); len(unknown) > 0 {
				logging.Get(logging.CategoryRules).Warn("rhyme rule %q references unknown atoms %q", cond, unknown)
			}
		}
		logging.Rules("loaded %d rhyme rules from %s", len(l), c.Rules.RhymesFile)
		composite = append(append(rules.List{}, l...), transcribe.CompositeRhymes...)
	}
	if c.Rules.FlatRhymesFile != "" {
		t, err := overrideTable(c.Rules.FlatRhymesFile, "flat rhyme", transcribe.FlatRhymes)
		if err != nil {
			return nil, err
		}
		flat = t
	}
	if c.Rules.RhymesFile != "" || c.Rules.FlatRhymesFile != "" {
		opts = append(opts, transcribe.WithRhymes(composite, flat))
	}
	return transcribe.New(opts...), nil
}

func overrideTable(path, name string, base rules.Table) (rules.Table, error) {
	t, err := rules.LoadTable(path)
	if err != nil {
		return nil, err
	}
	for k := range t {
		if !base.Has(k) {
			logging.Rules("%s table override adds key %q", name, k)
		}
	}
	logging.Rules("loaded %d %s overrides from %s", len(t), name, path)
	return base.Merge(t), nil
}

func newDeriveCmd() *cobra.Command {
	var (
		rf  recordFlags
		all bool
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Transcribe a reading",
		Long: `Derives the transcription of one reading given by flags, of every stored
reading of --char, or of the whole store with --all.

Example:
  kwangun derive --onset 幫 --hu 合 --grade 三 --rhyme 虞 --tone 去
  kwangun derive --char 東
  kwangun derive --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeriver(cfg)
			if err != nil {
				return err
			}
			if all {
				return deriveStore(cmd, d)
			}

			readings, err := rf.readings(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rf.char == "" {
				fmt.Fprintln(out, d.Derive(readings[0].Record))
				return nil
			}
			for _, r := range readings {
				printDerived(out, r, d.Derive(r.Record))
			}
			return nil
		},
	}
	rf.bind(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "Transcribe every stored reading")
	return cmd
}

func deriveStore(cmd *cobra.Command, d *transcribe.Deriver) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	readings, err := s.All(ctx)
	if err != nil {
		return err
	}
	records := make([]types.Record, len(readings))
	for i, r := range readings {
		records[i] = r.Record
	}
	results, err := d.DeriveAll(ctx, records, cfg.Derive.Workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range readings {
		printDerived(out, r, results[i])
	}
	return nil
}

func printDerived(w io.Writer, r store.Reading, result string) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", r.Char(), result, r.Record)
}

func newExplainCmd() *cobra.Command {
	var rf recordFlags

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show every step of a derivation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeriver(cfg)
			if err != nil {
				return err
			}
			readings, err := rf.readings(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range readings {
				fmt.Fprintln(out, renderTrace(r.Char(), d.Trace(r.Record)))
			}
			return nil
		},
	}
	rf.bind(cmd)
	return cmd
}

func newEvalCmd() *cobra.Command {
	var (
		rf   recordFlags
		tree bool
	)

	cmd := &cobra.Command{
		Use:   "eval [expression]",
		Short: "Evaluate a category expression against a reading",
		Long: `Evaluates a category expression such as "三等 非 莊組" or "脂韻 或 之韻"
against the reading given by flags and prints true or false.

Example:
  kwangun eval "開口 三等 A類" --onset 章 --hu 開 --grade 三 --rhyme 支A`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := predicate.Default()
			out := cmd.OutOrStdout()
			if tree {
				fmt.Fprintln(out, ev.Parse(args[0]))
				if unknown := ev.Unknown(args[0]); len(unknown) > 0 {
					fmt.Fprintf(out, "unknown atoms: %q\n", unknown)
				}
			}
			readings, err := rf.readings(cmd)
			if err != nil {
				return err
			}
			for _, r := range readings {
				fmt.Fprintln(out, ev.Is(r.Record, args[0]))
			}
			return nil
		},
	}
	rf.bind(cmd)
	cmd.Flags().BoolVar(&tree, "tree", false, "Print the parsed expression tree first")
	return cmd
}

func newSiHuCmd() *cobra.Command {
	var rf recordFlags

	cmd := &cobra.Command{
		Use:   "sihu",
		Short: "Classify a reading into the modern four medials (四呼)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := rf.readings(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range readings {
				res := sihu.Explain(r.Record)
				if res.Overridden() {
					fmt.Fprintf(out, "%s\t(%s overrides %s)\n", res.Class, res.Special, res.Basic)
					continue
				}
				fmt.Fprintln(out, res.Class)
			}
			return nil
		},
	}
	rf.bind(cmd)
	return cmd
}
