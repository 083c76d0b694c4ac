// Command medilink analyzes medical documents from the terminal, either
// through the MediLink backend or offline with the local text heuristics.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/medilink-health/medilink-web/internal/config"
)

const usage = `usage: medilink <command> [flags] [args]

commands:
  analyze [-type lab_report|prescription] [-export FILE] [-ask QUESTION]... FILE
        upload FILE to the backend and print the analysis
  inspect [-type lab_report|prescription|other] FILE...
        extract text locally and print the heuristic analysis
  drugs [-limit N] [-page N] TERM
        search the drug database
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "analyze":
		err = runAnalyze(ctx, cfg, log, args)
	case "inspect":
		err = runInspect(ctx, os.Stdout, args)
	case "drugs":
		err = runDrugs(ctx, cfg, os.Stdout, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "medilink:", err)
		os.Exit(1)
	}
}
