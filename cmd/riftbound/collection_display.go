package main

import (
	"fmt"
	"sort"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/collection"
)

// displayCollection displays the owned cards and their breakdown.
func displayCollection(entries []collection.Entry, stats collection.Stats, src cards.Source) {
	if len(entries) == 0 {
		fmt.Println("Your collection is empty.")
		return
	}

	fmt.Println("Card Collection")
	fmt.Println("===============")
	fmt.Println()

	fmt.Println("Collection Summary:")
	fmt.Printf("  Total Cards:      %d\n", stats.TotalCards)
	fmt.Printf("  Unique Cards:     %d\n", stats.UniqueCards)
	fmt.Println()

	printCounts("By Rarity:", stats.RarityCount)
	printCounts("By Type:", stats.TypeCount)

	fmt.Println("Cards:")
	for _, e := range entries {
		name := e.CardID
		if c, ok := src.FindByID(e.CardID); ok {
			name = c.Name
		}
		fav := ""
		if e.IsFavorite {
			fav = " *"
		}
		fmt.Printf("  %3dx %-32s (%s)%s\n", e.Quantity, name, e.CardID, fav)
	}
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println(title)
	for _, k := range keys {
		fmt.Printf("  %s: %d\n", k, counts[k])
	}
	fmt.Println()
}

// displayCompletion displays set completion statistics.
func displayCompletion(c collection.Completion) {
	fmt.Println("Set Completion")
	fmt.Println("==============")
	fmt.Println()

	for _, s := range c.Sets {
		fmt.Printf("  %-24s %d/%d (%.1f%%)\n", s.Set, s.Owned, s.Total, s.Percent)
	}
	fmt.Println()
	fmt.Printf("  Overall: %d/%d (%.1f%%)\n", c.Owned, c.Total, c.Percent)
}
