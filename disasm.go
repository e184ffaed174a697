package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ember/compiler"
	"ember/value"

	"github.com/google/subcommands"
)

type emitCmd struct {
	outFile string
}

func (*emitCmd) Name() string { return "emit" }
func (*emitCmd) Synopsis() string {
	return "Compile a source file and print its disassembled bytecode"
}
func (*emitCmd) Usage() string {
	return `emit <file>:
  Compile the given source file and print the disassembly of every
  function it defines, without running it.
`
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.outFile, "o", "", "write the disassembly to this file instead of stdout")
}

func (cmd *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	script, err := compiler.Compile(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n%v\n", err)
		return subcommands.ExitFailure
	}

	out := disassembleAll(script)

	if cmd.outFile == "" {
		fmt.Print(out)
		return subcommands.ExitSuccess
	}

	if err := os.WriteFile(cmd.outFile, []byte(out), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write disassembly:\n\t%v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// disassembleAll walks a compiled script and every function nested in
// its constant pool, rendering each one's chunk in turn.
func disassembleAll(fn *value.Function) string {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	out := compiler.Disassemble(fn.Chunk, name)
	for _, c := range fn.Chunk.Constants {
		if c.IsFunction() {
			out += disassembleAll(c.AsFunction())
		}
	}
	return out
}
