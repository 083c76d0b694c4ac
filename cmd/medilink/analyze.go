package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/medilink-health/medilink-web/internal/assistant"
	"github.com/medilink-health/medilink-web/internal/backend"
	"github.com/medilink-health/medilink-web/internal/config"
	"github.com/medilink-health/medilink-web/internal/export"
	"github.com/medilink-health/medilink-web/internal/upload"
)

func runAnalyze(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	docType := fs.String("type", string(upload.LabReport), "document type: lab_report or prescription")
	exportPath := fs.String("export", "", "write the PDF summary to this file")
	var questions []string
	fs.Func("ask", "question to ask after analysis (repeatable)", func(s string) error {
		questions = append(questions, s)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("analyze takes exactly one file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dt, err := upload.ParseDocType(*docType)
	if err != nil {
		return err
	}
	f, err := readUpload(fs.Arg(0))
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	defer client.Close()

	v := assistant.NewView("cli", client, cfg.RequestTimeout, log)
	v.SetDocType(dt)
	if err := v.SelectFile(f); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Processing your document...")
	if err := v.Submit(ctx); err != nil {
		if msg := v.Snapshot().Status.Message; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	snap := v.Snapshot()
	printReport(os.Stdout, snap.Report)
	if snap.Source == assistant.SourceHeuristic {
		fmt.Fprintln(os.Stdout, "\n(details extracted from the narrative analysis)")
	}

	for _, q := range questions {
		reply, err := v.Ask(ctx, q)
		if err != nil {
			// The failure turn is already on the transcript.
			if t := v.Snapshot().Transcript; len(t) > 0 {
				reply = t[len(t)-1].Content
			} else {
				return err
			}
		}
		fmt.Fprintf(os.Stdout, "\n> %s\n%s\n", q, reply)
	}

	if *exportPath == "" {
		return nil
	}
	data, err := v.Export(ctx, export.NewExporter(log))
	if errors.Is(err, assistant.ErrExportUnavailable) {
		fmt.Fprintln(os.Stderr, "PDF summary is only available for structured reports; skipping export")
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(*exportPath, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", *exportPath, len(data))
	return nil
}

// readUpload loads a local file as an upload, guessing its media type from
// the extension. Size is checked before the file is read.
func readUpload(path string) (upload.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return upload.File{}, err
	}
	f := upload.File{
		Name:        filepath.Base(path),
		ContentType: upload.ContentTypeForFilename(path),
		Size:        info.Size(),
	}
	if err := upload.Validate(f); err != nil {
		return upload.File{}, err
	}
	f.Data, err = os.ReadFile(path)
	if err != nil {
		return upload.File{}, err
	}
	return f, nil
}
