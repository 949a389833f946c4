package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagemill/internal/fileutil"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove orphaned temporary files from the docs tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			removed := fileutil.SweepTemp(cfg.Paths.DocsDir)
			fmt.Printf("removed %d temporary file(s)\n", removed)
			return nil
		},
	}
}
