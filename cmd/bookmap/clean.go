package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bookmap/internal/records"
)

func newCleanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [<in> <out>]",
		Short: "Drop vectors and make coordinates numeric, for display",
		Long: "Reads a record file written by run and writes the clean projection. " +
			"Without arguments it reads paths.output_json and writes paths.clean_json.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("want 0 or 2 arguments, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := a.cfg.Paths.OutputJSON, a.cfg.Paths.CleanJSON
			if len(args) == 2 {
				in, out = args[0], args[1]
			}
			if out == "" {
				return errors.New("no output path: pass <in> <out> or set paths.clean_json")
			}
			n, err := records.CleanFile(a.fs, in, out)
			if err != nil {
				return err
			}
			a.log.Info("clean records written", "count", n, "from", in, "path", out)
			return nil
		},
	}
}
