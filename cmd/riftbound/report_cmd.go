package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/Naokyoo/Riftbound-manager/internal/charts"
)

func (a *app) reportCommand(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "collection" {
		return errUsage
	}

	fs := flag.NewFlagSet("report collection", flag.ContinueOnError)
	output := fs.String("o", "collection-report.html", "Output HTML file")
	open := fs.Bool("open", false, "Open the report in a browser")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	sess, err := a.session(true)
	if err != nil {
		return err
	}
	if err := a.ledger.Fetch(ctx, sess); err != nil {
		return err
	}

	completion := a.ledger.Completion(sess, a.catalog)
	err = charts.RenderCollectionReport(charts.CollectionReport{
		Stats:      a.ledger.GetStats(sess),
		Completion: &completion,
	}, *output)
	if err != nil {
		return err
	}

	fmt.Printf("Report written to %s\n", *output)
	if *open {
		return charts.OpenInBrowser(*output)
	}
	return nil
}
