// Package cli wires decimate's subcommands to a shared dispatcher, in the
// same shape as the teacher's internal/cli package: a *Command per
// subcommand, a thin IO for stdout/stderr with LLM-visible warnings, and a
// global flag set that resolves configuration before dispatch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one subcommand: its flags, help text, and the function that
// runs it.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Long  string
	Exec  func(ctx context.Context, io *IO, args []string) error
}

// Name returns the command's invocation name, the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine renders one line for the top-level command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

// PrintHelp writes the command's full usage block to o.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: decimate", c.Usage)
	o.Println()

	if c.Long != "" {
		o.Println(c.Long)
		o.Println()
	}

	o.Println("Flags:")
	o.Println(strings.TrimRight(c.Flags.FlagUsages(), "\n"))
}

// Run parses args against the command's flags and executes it, returning
// a process exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}
