package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Naokyoo/Riftbound-manager/internal/charts"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/deck"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/deckexport"
	"github.com/Naokyoo/Riftbound-manager/internal/session"
)

func (a *app) listDecks(ctx context.Context) error {
	sess, err := a.session(true)
	if err != nil {
		return err
	}
	if err := a.coordinator.Refresh(ctx, sess); err != nil {
		return err
	}
	displayDeckList(a.coordinator.ListDecks(sess))
	return nil
}

// resolveDeck finds a cached deck by id, or by name when no id matches.
func (a *app) resolveDeck(sess session.Session, ref string) (string, error) {
	summaries := a.coordinator.ListDecks(sess)
	for _, s := range summaries {
		if s.ID == ref {
			return s.ID, nil
		}
	}
	var matches []string
	for _, s := range summaries {
		if strings.EqualFold(s.Name, ref) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("deck %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%d decks are named %q; use the deck id", len(matches), ref)
	}
}

func (a *app) deckCommand(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	sub, rest := args[0], args[1:]

	sess, err := a.session(true)
	if err != nil {
		return err
	}
	if err := a.coordinator.Refresh(ctx, sess); err != nil {
		return err
	}

	if sub == "create" {
		if len(rest) < 2 {
			return errUsage
		}
		legend, ok := a.catalog.FindByID(rest[0])
		if !ok {
			return fmt.Errorf("legend %q is not in the catalog", rest[0])
		}
		if !legend.HasType(cards.TypeLegend) {
			return fmt.Errorf("%s is a %s, not a Legend", legend.Name, legend.PrimaryType())
		}
		created, err := a.coordinator.CreateDeck(ctx, sess, strings.Join(rest[1:], " "), legend)
		if err != nil {
			return err
		}
		fmt.Printf("Created deck %s (%s), faction %s\n", created.Name, created.ID, created.MainFaction)
		return nil
	}

	deckID, err := a.resolveDeck(sess, rest[0])
	if err != nil {
		return err
	}
	rest = rest[1:]

	var res deck.Result
	switch sub {
	case "show":
		d, ok := a.coordinator.GetDeck(sess, deckID)
		if !ok {
			return fmt.Errorf("deck %q not found", deckID)
		}
		displayDeck(d, deck.StatsOf(d), a.coordinator.Targets())
		return nil

	case "stats":
		stats, ok := a.coordinator.GetDeckStats(sess, deckID)
		if !ok {
			return fmt.Errorf("deck %q not found", deckID)
		}
		displayDeckStats(stats, a.coordinator.Targets())
		return nil

	case "pool":
		bucket := cards.BucketCards
		if len(rest) > 0 {
			bucket = cards.Bucket(rest[0])
		}
		displayCards(a.coordinator.DeckBuilderPool(sess, deckID, bucket), 0)
		return nil

	case "rename":
		if len(rest) == 0 {
			return errUsage
		}
		res, err = a.coordinator.UpdateDeckName(ctx, sess, deckID, strings.Join(rest, " "))

	case "delete":
		res, err = a.coordinator.DeleteDeck(ctx, sess, deckID)

	case "add", "remove":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		qty, qerr := quantityArg(rest, 1, 1)
		if qerr != nil {
			return qerr
		}
		if sub == "add" {
			if card, ok := a.catalog.FindByID(rest[0]); ok {
				if d, ok := a.coordinator.GetDeck(sess, deckID); ok && !deck.IsCardAllowed(d, card) {
					a.logger.Warn("card is outside the legend's domains", "card_id", card.ID, "deck_id", deckID)
				}
			}
			res, err = a.coordinator.AddCardToDeck(ctx, sess, deckID, rest[0], qty)
		} else {
			res, err = a.coordinator.RemoveCardFromDeck(ctx, sess, deckID, rest[0], qty)
		}

	case "drop":
		if len(rest) != 1 {
			return errUsage
		}
		res, err = a.coordinator.DeleteCardFromDeck(ctx, sess, deckID, rest[0])

	case "duplicate":
		dup, err := a.coordinator.DuplicateDeck(ctx, sess, deckID)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s): %d lines copied\n", dup.Deck.Name, dup.Deck.ID, dup.Copied)
		if len(dup.Failed) > 0 {
			fmt.Printf("Could not copy: %s\n", strings.Join(dup.Failed, ", "))
		}
		return nil

	case "validate":
		v, err := a.coordinator.ValidateDeck(ctx, sess, deckID)
		if err != nil {
			return err
		}
		verdict := "invalid"
		if v.IsValid {
			verdict = "valid"
		}
		fmt.Printf("Deck is %s", verdict)
		if v.Message != "" {
			fmt.Printf(": %s", v.Message)
		}
		fmt.Println()
		return nil

	case "result":
		if len(rest) != 1 || (rest[0] != "win" && rest[0] != "loss") {
			return errUsage
		}
		res, err = a.coordinator.RecordGameResult(ctx, sess, deckID, rest[0] == "win")

	case "export":
		return a.exportDeck(sess, deckID, rest)

	case "report":
		return a.deckReport(sess, deckID, rest)

	case "raw":
		raw, err := a.coordinator.GetDeckDetailed(ctx, sess, deckID)
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil

	default:
		return errUsage
	}
	if err != nil {
		return err
	}

	if res.Message != "" {
		fmt.Println(res.Message)
	}
	if st := a.coordinator.DeckState(sess, deckID); st != "" && sub != "delete" {
		a.logger.Debug("deck sync state", "deck_id", deckID, "state", st)
	}
	return nil
}

func (a *app) exportDeck(sess session.Session, deckID string, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", string(deckexport.FormatText), "text or json")
	output := fs.String("o", "", "Write to this file instead of stdout")
	stats := fs.Bool("stats", false, "Append bucket totals")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	d, ok := a.coordinator.GetDeck(sess, deckID)
	if !ok {
		return fmt.Errorf("deck %q not found", deckID)
	}
	out, err := deckexport.Export(d, &deckexport.Options{
		Format:         deckexport.Format(*format),
		IncludeHeaders: true,
		IncludeStats:   *stats,
	})
	if err != nil {
		return err
	}

	if *output == "" {
		fmt.Print(out.Content)
		return nil
	}
	path := *output
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, out.Filename)
	}
	if err := os.WriteFile(path, []byte(out.Content), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func (a *app) deckReport(sess session.Session, deckID string, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	output := fs.String("o", "deck-report.html", "Output HTML file")
	open := fs.Bool("open", false, "Open the report in a browser")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	d, ok := a.coordinator.GetDeck(sess, deckID)
	if !ok {
		return fmt.Errorf("deck %q not found", deckID)
	}
	if err := charts.RenderDeckReport(d, a.coordinator.Targets(), *output); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", *output)
	if *open {
		return charts.OpenInBrowser(*output)
	}
	return nil
}
