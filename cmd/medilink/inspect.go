package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/medilink-health/medilink-web/internal/heuristic"
	"github.com/medilink-health/medilink-web/internal/parser"
	"github.com/medilink-health/medilink-web/internal/report"
)

type inspection struct {
	path   string
	report report.Report
	err    error
}

func runInspect(ctx context.Context, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	docType := fs.String("type", "other", "document type: lab_report, prescription or other")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("inspect needs at least one file")
	}

	results, err := inspectFiles(ctx, report.KindFromDocumentType(*docType), fs.Args())
	if err != nil {
		return err
	}

	failed := 0
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", res.path)
		if res.err != nil {
			fmt.Fprintf(w, "error: %v\n", res.err)
			failed++
			continue
		}
		printReport(w, res.report)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be inspected", failed, len(results))
	}
	return nil
}

// inspectFiles parses each file and derives a report of the given kind. A
// per-file failure is recorded on its result; only cancellation aborts the
// batch. Results keep the order of paths.
func inspectFiles(ctx context.Context, kind report.Kind, paths []string) ([]inspection, error) {
	results := make([]inspection, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := inspectFile(kind, path)
			results[i] = inspection{path: path, report: r, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func inspectFile(kind report.Kind, path string) (report.Report, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := p.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	text := doc.Text()
	if text == "" {
		return nil, errors.New("no text found")
	}
	return heuristic.Derive(kind, text), nil
}
