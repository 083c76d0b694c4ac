package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/medilink-health/medilink-web/internal/backend"
	"github.com/medilink-health/medilink-web/internal/config"
	"github.com/medilink-health/medilink-web/internal/web"
)

func runDrugs(ctx context.Context, cfg config.Config, w io.Writer, args []string) error {
	fs := flag.NewFlagSet("drugs", flag.ContinueOnError)
	limit := fs.Int("limit", cfg.DrugSearchLimit, "results per page")
	page := fs.Int("page", 0, "zero-based page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	term := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if term == "" {
		return errors.New("drugs needs a search term")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	defer client.Close()

	res, err := client.SearchDrugs(ctx, backend.DrugQuery{Search: term, Limit: *limit, Page: *page})
	if err != nil {
		return err
	}
	printDrugs(w, res)
	return nil
}

func printDrugs(w io.Writer, res *backend.DrugPage) {
	if len(res.Drugs) == 0 {
		fmt.Fprintln(w, "No medications found.")
		return
	}
	fmt.Fprintf(w, "%d results (page %d of %d)\n", res.Total, res.Page+1, max(res.TotalPages, 1))
	for _, d := range res.Drugs {
		fmt.Fprintf(w, "\n%s", d.Title)
		if d.Price != "" {
			fmt.Fprintf(w, "  %s", d.Price)
		}
		fmt.Fprintln(w)
		if d.Desc != "" {
			fmt.Fprintf(w, "  %s\n", d.Desc)
		}
		fmt.Fprintf(w, "  Side effects: %s\n", strings.Join(web.FormatSideEffects(d.SideEffect), "; "))
	}
}
