package main

import (
	"fmt"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/deck"
)

// displayDeckList displays the deck library.
func displayDeckList(decks []deck.Summary) {
	if len(decks) == 0 {
		fmt.Println("No saved decks found.")
		return
	}

	fmt.Println("Decks")
	fmt.Println("=====")
	fmt.Println()
	for i, d := range decks {
		legend := "no legend"
		if d.Legend != nil {
			legend = d.Legend.Name
		}
		valid := ""
		if d.IsValid {
			valid = " [valid]"
		}
		fmt.Printf("  %d. %s (%s)%s\n", i+1, d.Name, d.ID, valid)
		fmt.Printf("     %s, %s, %d-%d\n", legend, d.MainFaction, d.Wins, d.Losses)
	}
}

var bucketTitles = map[cards.Bucket]string{
	cards.BucketCards:        "Main Deck",
	cards.BucketRunes:        "Runes",
	cards.BucketBattlefields: "Battlefields",
}

// displayDeck displays a single deck with its lines.
func displayDeck(d *deck.EnrichedDeck, stats deck.Stats, targets deck.Targets) {
	fmt.Printf("Deck: %s\n", d.Name)
	if d.Legend != nil {
		fmt.Printf("Legend: %s (%s)\n", d.Legend.Name, d.Legend.ID)
	}
	if d.MainFaction != "" {
		fmt.Printf("Faction: %s\n", d.MainFaction)
	}
	if d.Description != "" {
		fmt.Printf("Description: %s\n", d.Description)
	}
	fmt.Printf("Record: %d-%d\n", d.Wins, d.Losses)
	fmt.Println()

	for _, b := range cards.Buckets {
		lines := d.Bucket(b)
		fmt.Printf("%s (%d):\n", bucketTitles[b], sumLines(lines))
		for _, l := range lines {
			fmt.Printf("  %dx %s (%s)\n", l.Quantity, l.Card.Name, l.Card.ID)
		}
		fmt.Println()
	}

	displayDeckStats(stats, targets)
}

func sumLines(lines []deck.Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// displayDeckStats shows bucket totals against the size targets.
func displayDeckStats(stats deck.Stats, targets deck.Targets) {
	fmt.Println("Deck Statistics:")
	fmt.Printf("  Main deck:     %d/%d\n", stats.TotalCards, targets.MainSize)
	fmt.Printf("  Runes:         %d/%d\n", stats.TotalRunes, targets.Runes)
	fmt.Printf("  Battlefields:  %d/%d\n", stats.TotalBattlefields, targets.Battlefields)
	fmt.Printf("  Total:         %d\n", stats.TotalDeckSize)
	switch {
	case stats.IsValid:
		fmt.Println("  Status:        valid")
	case stats.TargetsReached(targets):
		fmt.Println("  Status:        complete, not validated")
	default:
		fmt.Println("  Status:        incomplete")
	}
}
