package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/collection"
)

func (a *app) listCards(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cards", flag.ContinueOnError)
	var f cards.Filter
	fs.StringVar(&f.Type, "type", "", "Primary type (Unit, Spell, Rune, ...)")
	fs.StringVar(&f.Rarity, "rarity", "", "Rarity label")
	fs.StringVar(&f.Set, "set", "", "Set name")
	fs.StringVar(&f.Domain, "domain", "", "Domain id or label")
	fs.StringVar(&f.Search, "search", "", "Substring of name or text")
	fuzzy := fs.String("fuzzy", "", "Fuzzy name search")
	limit := fs.Int("limit", 50, "Maximum cards shown (0 = all)")
	owned := fs.String("owned", string(collection.FilterAll), "all, owned or not-owned")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var list []*cards.Card
	if *fuzzy != "" {
		list = cards.Search(a.catalog, *fuzzy, *limit)
	} else {
		list = cards.Query(a.catalog, f)
	}

	ownedFilter := collection.OwnedFilter(*owned)
	if ownedFilter != collection.FilterAll {
		sess, err := a.session(true)
		if err != nil {
			return err
		}
		if err := a.ledger.Fetch(ctx, sess); err != nil {
			return err
		}
		list = a.ledger.Filter(sess, list, ownedFilter)
	}

	displayCards(list, *limit)
	return nil
}

func displayCards(list []*cards.Card, limit int) {
	if len(list) == 0 {
		fmt.Println("No cards found.")
		return
	}

	fmt.Printf("%d cards\n\n", len(list))
	for i, c := range list {
		if limit > 0 && i >= limit {
			fmt.Printf("... and %d more\n", len(list)-limit)
			break
		}
		fmt.Printf("  %-10s %-32s %-12s %-10s %s\n",
			c.ID, c.Name, c.PrimaryType(), c.RarityLabel(), strings.Join(domainLabels(c), "/"))
	}
}

func domainLabels(c *cards.Card) []string {
	out := make([]string, 0, len(c.Domains))
	for _, d := range c.Domains {
		out = append(out, d.Label)
	}
	return out
}
