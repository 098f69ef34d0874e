package main

import (
	"fmt"
	"os"

	"github.com/pthm/hxmount/lib/generator"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "render":
		if err := runRender(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "generate":
		if err := runGenerate(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "clean":
		if err := runClean(args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("hxmount version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hxmount - deferred-mount components for Go

Usage:
  hxmount <command> [arguments]

Commands:
  render <config.yaml>  Mount the declared components and print the document
  generate [packages]   Generate MergeProps for //hxmount:props structs
  clean [packages]      Remove generated files (*_props.go)
  version               Print version
  help                  Show this help

Options for render:
  -o <file>             Write the document to file instead of stdout
  -v                    Log lifecycle events to stderr
  --stats               Print mount metrics to stderr

Options for generate:
  --dry-run             Show what would be generated without writing files

Examples:
  hxmount render site.yaml -o index.html  Render a document
  hxmount generate ./...                  Generate for all packages
  hxmount clean ./...                     Remove all generated files`)
}

func runGenerate(args []string) error {
	var dryRun bool
	var patterns []string

	for _, arg := range args {
		if arg == "--dry-run" {
			dryRun = true
		} else {
			patterns = append(patterns, arg)
		}
	}

	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	gen := generator.New(generator.Options{
		DryRun: dryRun,
	})

	return gen.Generate(patterns...)
}

func runClean(args []string) error {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	gen := generator.New(generator.Options{})
	return gen.Clean(patterns...)
}
