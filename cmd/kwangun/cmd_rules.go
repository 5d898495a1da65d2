package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kwangun/internal/predicate"
	"kwangun/internal/rules"
	"kwangun/internal/transcribe"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and check rhyme rule lists",
	}

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the built-in composite rhyme rules as YAML",
		Long: `Prints the built-in composite rhyme list in the format rules.rhymes_file
reads, as a starting point for an override file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := rules.MarshalList(transcribe.CompositeRhymes)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Report rule conditions that reference unknown atoms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := rules.LoadList(args[0])
			if err != nil {
				return err
			}

			ev := predicate.Default()
			out := cmd.OutOrStdout()
			bad := 0
			for i, cond := range l.Conditions() {
				unknown := ev.Unknown(cond)
				if len(unknown) == 0 {
					continue
				}
				bad++
				fmt.Fprintf(out, "rule %d %q: unknown atoms %q\n", i, cond, unknown)
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d rules reference unknown atoms", bad, len(l))
			}
			fmt.Fprintf(out, "%d rules ok\n", len(l))
			return nil
		},
	}

	cmd.AddCommand(dumpCmd, checkCmd)
	return cmd
}
