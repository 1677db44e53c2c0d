package charts

import (
	"fmt"
	"strconv"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/collection"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/deck"
)

// CollectionReport is the data of a collection report.
type CollectionReport struct {
	Stats      collection.Stats
	Completion *collection.Completion // optional
}

// RenderCollectionReport writes an HTML page with the rarity and type
// breakdown of a collection and, when given, per-set completion.
func RenderCollectionReport(report CollectionReport, outputPath string) error {
	config := DefaultChartConfig()
	page := newPage("Collection report")

	subtitle := fmt.Sprintf("%d cards, %d unique", report.Stats.TotalCards, report.Stats.UniqueCards)
	if len(report.Stats.RarityCount) > 0 {
		rarity, err := NewBarChart("Cards by rarity", subtitle,
			[]SeriesData{{Name: "Copies", Points: PointsOf(report.Stats.RarityCount)}}, config)
		if err != nil {
			return err
		}
		page.AddCharts(rarity)
	}
	if len(report.Stats.TypeCount) > 0 {
		page.AddCharts(NewPieChart("Cards by type", PointsOf(report.Stats.TypeCount), config))
	}

	if c := report.Completion; c != nil && len(c.Sets) > 0 {
		owned := SeriesData{Name: "Owned"}
		total := SeriesData{Name: "Total"}
		for _, s := range c.Sets {
			owned.Points = append(owned.Points, DataPoint{Label: s.Set, Value: float64(s.Owned)})
			total.Points = append(total.Points, DataPoint{Label: s.Set, Value: float64(s.Total)})
		}
		completion, err := NewBarChart("Set completion",
			fmt.Sprintf("%.1f%% of the catalog", c.Percent), []SeriesData{owned, total}, config)
		if err != nil {
			return err
		}
		page.AddCharts(completion)
	}

	if len(page.Charts) == 0 {
		return fmt.Errorf("collection is empty")
	}
	return renderFile(page, outputPath)
}

// RenderDeckReport writes an HTML page comparing the bucket sums of d with
// the size targets, with the type split and energy curve of its main deck.
func RenderDeckReport(d *deck.EnrichedDeck, targets deck.Targets, outputPath string) error {
	if d == nil {
		return fmt.Errorf("deck is nil")
	}

	config := DefaultChartConfig()
	page := newPage(d.Name)
	stats := deck.StatsOf(d)

	subtitle := "Not validated"
	if stats.IsValid {
		subtitle = "Valid"
	}
	sizes, err := NewBarChart(d.Name, subtitle, []SeriesData{
		{Name: "In deck", Points: []DataPoint{
			{Label: "Main deck", Value: float64(stats.TotalCards)},
			{Label: "Runes", Value: float64(stats.TotalRunes)},
			{Label: "Battlefields", Value: float64(stats.TotalBattlefields)},
		}},
		{Name: "Target", Points: []DataPoint{
			{Label: "Main deck", Value: float64(targets.MainSize)},
			{Label: "Runes", Value: float64(targets.Runes)},
			{Label: "Battlefields", Value: float64(targets.Battlefields)},
		}},
	}, config)
	if err != nil {
		return err
	}
	page.AddCharts(sizes)

	if len(d.Cards) > 0 {
		types := make(map[string]int)
		curve := make(map[int]int)
		maxEnergy := 0
		for _, l := range d.Cards {
			types[l.Card.PrimaryType()] += l.Quantity
			curve[l.Card.Energy] += l.Quantity
			maxEnergy = max(maxEnergy, l.Card.Energy)
		}
		page.AddCharts(NewPieChart("Main deck by type", PointsOf(types), config))

		points := make([]DataPoint, 0, maxEnergy+1)
		for e := 0; e <= maxEnergy; e++ {
			points = append(points, DataPoint{Label: strconv.Itoa(e), Value: float64(curve[e])})
		}
		energy, err := NewBarChart("Energy curve", "", []SeriesData{{Name: "Cards", Points: points}}, config)
		if err != nil {
			return err
		}
		page.AddCharts(energy)
	}

	if len(d.Runes) > 0 {
		domains := make(map[string]int)
		for _, l := range d.Runes {
			label := l.Card.PrimaryDomain()
			if label == "" {
				label = cards.TypeRune
			}
			domains[label] += l.Quantity
		}
		page.AddCharts(NewPieChart("Runes by domain", PointsOf(domains), config))
	}

	return renderFile(page, outputPath)
}
