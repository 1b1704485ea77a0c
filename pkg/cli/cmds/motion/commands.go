// Package motion provides shell commands moving the arrays.
package motion

import (
	"context"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/ceiling.go/pkg/array"
	"github.com/robotalks/ceiling.go/pkg/cli/sh"
)

// run executes op and prints its outcomes. Outcomes are printed even when
// op also reports an error, e.g. when persisting the grid failed.
func run(c *ishell.Context, op func(ctx context.Context) ([]array.Outcome, error)) {
	ctx, stop := sh.ShellFrom(c).Operation()
	defer stop()
	outcomes, err := op(ctx)
	if outcomes != nil {
		sh.PrintOutcomes(c, outcomes)
	}
	if err != nil {
		c.Err(err)
	}
}

var (
	// CSVCmd moves arrays to the desired state file.
	CSVCmd = ishell.Cmd{
		Name:    "csv",
		Aliases: []string{"1"},
		Help:    "move arrays from current to desired state",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			run(c, sh.ShellFrom(c).Controller.ApplyCSV)
		}),
	}

	// ResetCmd moves all motors to their end stop.
	ResetCmd = ishell.Cmd{
		Name:    "reset",
		Aliases: []string{"2"},
		Help:    "move all motors up and zero current state",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			run(c, sh.ShellFrom(c).Controller.Reset)
		}),
	}

	// ManualCmd sends an operator typed batch.
	ManualCmd = ishell.Cmd{
		Name:    "manual",
		Aliases: []string{"3"},
		Help:    "<Up,1>;<Down,2>;...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			text := strings.Join(c.Args, " ")
			if text == "" {
				if !sh.ShellFrom(c).Interactive {
					c.Err(array.Errorf(array.MalformedBatch, "batch required"))
					return
				}
				c.Print("Enter commands (format '<Up,1>;<Up,1>'): ")
				text = c.ReadLine()
			}
			ctrl := sh.ShellFrom(c).Controller
			run(c, func(ctx context.Context) ([]array.Outcome, error) {
				return ctrl.Manual(ctx, text)
			})
		}),
	}
)

func init() {
	sh.AddCmds(
		&CSVCmd,
		&ResetCmd,
		&ManualCmd,
	)
}
