package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert Markdown resumes to PDF (default)")
	fmt.Fprintln(w, "  serve      Serve the renderer over HTTP")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'resume2pdf help <command>' for details on a specific command.")
}

func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -1, --one-page            Compress the layout to fit one page")
	fmt.Fprintln(w, "  -b, --backend <s>         Backend: native (default), html")
	fmt.Fprintln(w, "      --engine <s>          HTML backend engine: rod (default), chromedp, wkhtmltopdf")
	fmt.Fprintln(w, "  -t, --timeout <d>         Render timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4 (default), letter, legal")
	fmt.Fprintln(w, "      --font-dir <path>     Directory with preferred TTF fonts")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing and debug logs")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Markdown resumes to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory, or - for stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (- for stdout)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --html                Also write the styled HTML")
	fmt.Fprintln(w, "      --html-only           Write the styled HTML only")
	fmt.Fprintln(w, "      --print-config        Print the effective config and exit")
	fmt.Fprintln(w)
	printRenderUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve POST /v1/render, /v1/render/html and /v1/parse.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default :8080)")
	fmt.Fprintln(w, "  -w, --workers <n>         Converter pool size (0 = auto)")
	fmt.Fprintln(w, "      --max-body <n>        Maximum request body in bytes")
	fmt.Fprintln(w)
	printRenderUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case cmdConvert:
		printConvertUsage(env.Stdout)
	case cmdServe:
		printServeUsage(env.Stdout)
	case cmdVersion:
		fmt.Fprintln(env.Stdout, "Usage: resume2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case cmdHelp:
		fmt.Fprintln(env.Stdout, "Usage: resume2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
