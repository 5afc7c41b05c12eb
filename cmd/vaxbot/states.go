package main

import (
	"fmt"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/demo"
	"github.com/spf13/cobra"
)

var statesCmd = &cobra.Command{
	Use:   "states [script]",
	Short: "List the states registered by a script",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		scripts := demo.Scripts(cfg, demo.Services{})
		names := demo.Names()
		if len(args) == 1 {
			if _, ok := scripts[args[0]]; !ok {
				return fmt.Errorf("unknown script %q (available: %v)", args[0], names)
			}
			names = args
		}

		out := cmd.OutOrStdout()
		for _, name := range names {
			s := scripts[name]
			fmt.Fprintf(out, "%s (start: %s)\n", name, s.StartState)
			for _, state := range s.StateNames() {
				fmt.Fprintf(out, "  %s\n", state)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statesCmd)
}
