// Package deckexport renders an enriched deck as a shareable deck list.
package deckexport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/deck"
)

// Format is the export format.
type Format string

const (
	FormatText Format = "text" // "2x Card Name (ID)" lines grouped by section
	FormatJSON Format = "json"
)

// Options controls deck export behavior.
type Options struct {
	Format         Format
	IncludeHeaders bool // section headers and the deck name comment
	IncludeStats   bool // bucket totals as trailing comments
}

// DeckExport is an exported deck.
type DeckExport struct {
	Content  string
	Format   Format
	Filename string // suggested file name
}

var sectionTitles = map[cards.Bucket]string{
	cards.BucketCards:        "Main Deck",
	cards.BucketRunes:        "Runes",
	cards.BucketBattlefields: "Battlefields",
}

// Export renders d. A nil options value exports text with headers.
func Export(d *deck.EnrichedDeck, options *Options) (*DeckExport, error) {
	if d == nil {
		return nil, fmt.Errorf("deck is nil")
	}
	if options == nil {
		options = &Options{Format: FormatText, IncludeHeaders: true}
	}

	var content, ext string
	switch options.Format {
	case FormatText, "":
		content, ext = exportText(d, options), "txt"
	case FormatJSON:
		b, err := exportJSON(d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode deck: %w", err)
		}
		content, ext = string(b), "json"
	default:
		return nil, fmt.Errorf("unsupported export format: %s", options.Format)
	}

	format := options.Format
	if format == "" {
		format = FormatText
	}
	return &DeckExport{
		Content:  content,
		Format:   format,
		Filename: fmt.Sprintf("%s.%s", sanitizeFilename(d.Name), ext),
	}, nil
}

func exportText(d *deck.EnrichedDeck, options *Options) string {
	var sb strings.Builder

	if options.IncludeHeaders {
		fmt.Fprintf(&sb, "// %s\n", d.Name)
		if d.MainFaction != "" {
			fmt.Fprintf(&sb, "// Faction: %s\n", d.MainFaction)
		}
		sb.WriteString("\n")
	}

	if d.Legend != nil {
		if options.IncludeHeaders {
			sb.WriteString("Legend:\n")
		}
		fmt.Fprintf(&sb, "1x %s (%s)\n", d.Legend.Name, d.Legend.ID)
	}

	for _, b := range cards.Buckets {
		lines := d.Bucket(b)
		if len(lines) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		if options.IncludeHeaders {
			sb.WriteString(sectionTitles[b] + ":\n")
		}
		for _, l := range lines {
			fmt.Fprintf(&sb, "%dx %s (%s)\n", l.Quantity, l.Card.Name, l.Card.ID)
		}
	}

	if options.IncludeStats {
		s := deck.StatsOf(d)
		fmt.Fprintf(&sb, "\n// Main deck: %d\n// Runes: %d\n// Battlefields: %d\n", s.TotalCards, s.TotalRunes, s.TotalBattlefields)
	}

	return sb.String()
}

type jsonLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type jsonDeck struct {
	Name         string     `json:"name"`
	Legend       *jsonLine  `json:"legend,omitempty"`
	MainFaction  string     `json:"mainFaction,omitempty"`
	Cards        []jsonLine `json:"cards"`
	Runes        []jsonLine `json:"runes"`
	Battlefields []jsonLine `json:"battlefields"`
}

func exportJSON(d *deck.EnrichedDeck) ([]byte, error) {
	out := jsonDeck{
		Name:         d.Name,
		MainFaction:  d.MainFaction,
		Cards:        toJSONLines(d.Cards),
		Runes:        toJSONLines(d.Runes),
		Battlefields: toJSONLines(d.Battlefields),
	}
	if d.Legend != nil {
		out.Legend = &jsonLine{ID: d.Legend.ID, Name: d.Legend.Name, Quantity: 1}
	}
	return json.MarshalIndent(out, "", "  ")
}

func toJSONLines(lines []deck.Line) []jsonLine {
	out := make([]jsonLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, jsonLine{ID: l.Card.ID, Name: l.Card.Name, Quantity: l.Quantity})
	}
	return out
}

// sanitizeFilename removes invalid characters from filename.
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if len(result) > 100 {
		result = result[:100]
	}
	if result == "" {
		result = "deck"
	}
	return result
}
