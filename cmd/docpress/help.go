package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpress <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Serve the HTTP API (default)")
	fmt.Fprintln(w, "  render     Compile one request file to PDF")
	fmt.Fprintln(w, "  doctor     Check pandoc, typst, fonts and work directory")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'docpress help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (env: DOCPRESS_CONFIG)")
	fmt.Fprintln(w, "      --env-file <path>     Dotenv file (default .env)")
	fmt.Fprintln(w, "      --log-format <s>      Log format: text, json")
	fmt.Fprintln(w, "  -v, --verbose             Debug logging")
	fmt.Fprintln(w, "  -q, --quiet               Only log errors")
}

func printToolFlags(w io.Writer) {
	fmt.Fprintln(w, "Tools:")
	fmt.Fprintln(w, "      --pandoc <bin>        pandoc binary")
	fmt.Fprintln(w, "      --typst <bin>         typst binary")
	fmt.Fprintln(w, "      --template-dir <dir>  Directory overriding the embedded templates")
	fmt.Fprintln(w, "      --font-dir <dir>      Font directory passed to typst")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent compiles (0 = auto)")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpress serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve POST /v1/documents, GET /healthz and GET /metrics.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <addr>         Listen address (default :8080)")
	fmt.Fprintln(w)
	printToolFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpress render <request.json|-> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compile a document request and write combined.pdf, plus english.pdf")
	fmt.Fprintln(w, "and japanese.pdf in bilingual mode.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default .)")
	fmt.Fprintln(w, "      --sequential          Run bilingual compiles one after another")
	fmt.Fprintln(w)
	printToolFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpress doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that pandoc and typst are installed, templates load,")
	fmt.Fprintln(w, "fonts are present and the work directory is writable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Output JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docpress config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after applying the config file,")
	fmt.Fprintln(w, "DOCPRESS_* environment variables and flags.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

var commandUsage = map[string]func(io.Writer){
	"serve":  printServeUsage,
	"render": printRenderUsage,
	"doctor": printDoctorUsage,
	"config": printConfigUsage,
}

// runHelp prints help for the command named in args, or the main usage.
func runHelp(args []string, deps *Dependencies) int {
	if len(args) == 0 {
		printUsage(deps.Stdout)
		return ExitSuccess
	}
	usage, ok := commandUsage[args[0]]
	if !ok {
		fmt.Fprintf(deps.Stderr, "docpress: unknown command %q\n\n", args[0])
		printUsage(deps.Stderr)
		return ExitUsage
	}
	usage(deps.Stdout)
	return ExitSuccess
}
