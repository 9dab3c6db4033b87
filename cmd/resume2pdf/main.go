package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if wantsVerbose(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the process exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	cmd, rest := splitCommand(args[1:])

	var err error
	switch cmd {
	case cmdConvert:
		err = runConvertCmd(ctx, rest, env)
	case cmdServe:
		err = runServeCmd(ctx, rest, env)
	case cmdVersion:
		fmt.Fprintf(env.Stdout, "resume2pdf %s\n", Version)
	case cmdHelp:
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if err != nil {
		fmt.Fprintln(env.Stderr, "Error:", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// Command names.
const (
	cmdConvert = "convert"
	cmdServe   = "serve"
	cmdVersion = "version"
	cmdHelp    = "help"
)

// splitCommand returns the command and its arguments. Anything that is not
// a known command name (a file, a flag) runs convert.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return cmdHelp, nil
	}
	switch first := args[0]; {
	case isCommand(first):
		return first, args[1:]
	case first == "-h" || first == "--help":
		return cmdHelp, nil
	case first == "--version":
		return cmdVersion, nil
	case looksLikeCommand(first):
		return first, args[1:]
	}
	return cmdConvert, args
}

func isCommand(s string) bool {
	return slices.Contains([]string{cmdConvert, cmdServe, cmdVersion, cmdHelp}, s)
}

// looksLikeCommand reports whether s is a bare word rather than a path or
// flag, so typos such as "serv" are reported instead of read as files.
func looksLikeCommand(s string) bool {
	if s == "" || s[0] == '-' {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '-' {
			return false
		}
	}
	return true
}

// wantsVerbose peeks at the raw arguments before flags are parsed.
func wantsVerbose(args []string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == "-v" || a == "--verbose" {
			return true
		}
	}
	return false
}
