// cmd/portal/main.go
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		help(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "validate":
		err = validateCommand(args[1:], stdout)
	case "submit":
		err = submitCommand(args[1:], stdout)
	case "save":
		err = saveCommand(args[1:], stdout)
	case "scores":
		err = scoresCommand(args[1:], stdout)
	case "scholarships":
		err = scholarshipsCommand(args[1:], stdout)
	case "help", "-h", "--help":
		help(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		help(stderr)
		return 2
	}

	if err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func help(w io.Writer) {
	fmt.Fprintln(w, "Usage: portal <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate     -draft <file> | -resume               Replay a draft and report validation errors")
	fmt.Fprintln(w, "  submit       -draft <file> | -resume [-metrics-addr] Upload documents and create the application")
	fmt.Fprintln(w, "  save         -draft <file>                         Store the draft in the configured draft store")
	fmt.Fprintln(w, "  scores       -application <id>[,<id>...]           Summarise and rank evaluations")
	fmt.Fprintln(w, "  scholarships [-all]                                List scholarships open for applications")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Every command accepts -config <path> (default configs/config.yaml).")
}
