package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kush-Singh-26/aksara/internal/clean"
	"github.com/Kush-Singh-26/aksara/internal/convert"
	"github.com/Kush-Singh-26/aksara/internal/info"
	"github.com/Kush-Singh-26/aksara/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "latin":
		err = runLatin(args, os.Stdin, os.Stdout)
	case "pegon":
		err = runPegon(args, os.Stdin, os.Stdout)
	case "stem":
		err = runStem(args, os.Stdin, os.Stdout)
	case "doc":
		err = convert.RunDoc(args, os.Stdin, os.Stdout)
	case "batch":
		err = withSignals(func(ctx context.Context) error { return convert.RunBatch(ctx, args) })
	case "serve":
		err = withSignals(func(ctx context.Context) error { return server.Run(ctx, args) })
	case "info":
		err = info.Run(args, os.Stdout)
	case "clean":
		err = clean.Run(args, os.Stdout)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// withSignals runs fn with a context cancelled on SIGINT or SIGTERM.
func withSignals(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}

func printUsage() {
	fmt.Println("Usage: aksara <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  latin [text]      Transliterate Latin to Pegon (text or stdin lines)")
	fmt.Println("  pegon [text]      Transliterate Pegon to Latin")
	fmt.Println("  stem [words]      Split words into root and affixes")
	fmt.Println("  doc [file]        Transliterate a Markdown document")
	fmt.Println("  batch <paths>     Transliterate files and directories in parallel")
	fmt.Println("  serve             Start the HTTP API")
	fmt.Println("  info              Describe the catalog and its schemes")
	fmt.Println("  clean             Remove the persistent cache")
	fmt.Println("  help              Show this help message")
	fmt.Println("\nCommon flags:")
	fmt.Println("  -variant <name>   indonesia, jawa, sunda or madura (default from config)")
	fmt.Println("  -config <path>    Config file (default: aksara.yaml)")
	fmt.Println("\nFlags for latin:")
	fmt.Println("  -stem             Spell affixes separately from stems")
	fmt.Println("\nFlags for pegon:")
	fmt.Println("  -standard         Produce standard Latin spelling")
	fmt.Println("\nFlags for doc and batch:")
	fmt.Println("  -html             Render HTML instead of Markdown")
	fmt.Println("  -minify           Minify HTML output")
	fmt.Println("  -out <dir>        Output directory (batch)")
	fmt.Println("\nFlags for serve:")
	fmt.Println("  -host, -port      Listen address (default from config)")
	fmt.Println("  -watch            Reload when the catalog or word lists change")
	fmt.Println("\nFlags for clean:")
	fmt.Println("  -gc [-n]          Prune the cache instead of deleting it")
	fmt.Println("  -stats            Show cache statistics")
}
