package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"ember/vm"

	"github.com/google/subcommands"
)

// runCmd implements the "run" subcommand: compile and execute a source
// file in one shot.
type runCmd struct {
	trace bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute ember code from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute ember code.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.trace, "trace", false, "dump disassembly and a stack trace for every instruction")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	machine := vm.New()
	if r.trace {
		log := logrus.New()
		log.SetLevel(logrus.DebugLevel)
		machine.SetTrace(log)
	}

	switch machine.Interpret(string(data)) {
	case vm.InterpretCompileError:
		return subcommands.ExitUsageError
	case vm.InterpretRuntimeError:
		return subcommands.ExitFailure
	default:
		return subcommands.ExitSuccess
	}
}
