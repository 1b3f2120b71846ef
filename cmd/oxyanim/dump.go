package main

import (
	"github.com/Carmen-Shannon/oxy-anim/engine/coordinator"
	"github.com/spf13/cobra"
)

type dumpOptions struct {
	at         float64
	channel    string
	simplified bool
}

func newDumpCmd(root *rootOptions) *cobra.Command {
	opts := &dumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump <animation>...",
		Short: "Print the blend graph and instances after attaching animations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			lib, err := loadLibrary(cfg)
			if err != nil {
				return err
			}
			c, insts, err := attachAll(lib, args, 1, coordinator.WithLogger(logger))
			if err != nil {
				return err
			}
			for _, inst := range insts {
				inst.Start()
			}
			if err := c.Tick(opts.at, opts.at); err != nil {
				logger.Warn("apply failed", "error", err)
			}

			out := cmd.OutOrStdout()
			if err := c.DumpGraph(out, opts.channel, opts.simplified); err != nil {
				return err
			}
			return c.DumpInstances(out)
		},
	}
	cmd.Flags().Float64Var(&opts.at, "time", 0, "World time to advance to before dumping")
	cmd.Flags().StringVar(&opts.channel, "channel", "", "Only dump this channel")
	cmd.Flags().BoolVar(&opts.simplified, "simplified", false, "Dump the simplified graph")
	return cmd
}

