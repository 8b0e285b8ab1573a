package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// argsNaming checks the positional argument count and names what is missing
// or extra. max < 0 means no upper bound.
func argsNaming(min, max int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		switch {
		case len(args) < min:
			return fmt.Errorf("%s: %s required", cmd.CommandPath(), what)
		case max >= 0 && len(args) > max:
			return fmt.Errorf("%s: expected only %s, got %d arguments", cmd.CommandPath(), what, len(args))
		}
		return nil
	}
}
