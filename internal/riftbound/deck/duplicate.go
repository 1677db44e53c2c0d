package deck

import (
	"context"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cardid"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/resync"
	"github.com/Naokyoo/Riftbound-manager/internal/session"
)

// CopySuffix is appended to the name of a duplicated deck.
const CopySuffix = " (Copy)"

// DuplicateResult is the outcome of DuplicateDeck.
type DuplicateResult struct {
	Deck *remote.DeckRecord `json:"deck"`

	// Copied counts replayed lines; Failed lists card ids whose replay the
	// service rejected.
	Copied int      `json:"copied"`
	Failed []string `json:"failed,omitempty"`
}

// DuplicateDeck creates a copy of a cached deck with the same legend, then
// replays its resolved lines one at a time against the copy.
//
// Duplication is not transactional: a line that fails to replay is skipped
// and the partially populated copy is kept. The operation succeeds as soon as
// the copy exists.
func (c *Coordinator) DuplicateDeck(ctx context.Context, sess session.Session, deckID string) (DuplicateResult, error) {
	const op = "duplicate deck"

	if err := requireSession(op, sess); err != nil {
		return DuplicateResult{}, err
	}

	src, ok := c.GetDeck(sess, deckID)
	if !ok {
		return DuplicateResult{}, apperr.Precondition(op, "Deck not found")
	}
	if src.Legend == nil {
		return DuplicateResult{}, apperr.Precondition(op, "Cannot duplicate: legend data missing")
	}

	return resync.Do(ctx, c.logger, op, func(ctx context.Context) (DuplicateResult, error) {
		created, err := c.create(ctx, sess, src.Name+CopySuffix, src.Legend)
		if err != nil {
			return DuplicateResult{}, err
		}

		res := DuplicateResult{Deck: created}
		for _, b := range cards.Buckets {
			for _, line := range src.Bucket(b) {
				id := cardid.Normalize(line.Card.ID)
				if _, err := c.backend.AddDeckCard(ctx, sess.Token, created.ID, id, line.Quantity); err != nil {
					c.logger.Warn("Failed to copy deck line",
						"deck_id", created.ID,
						"card_id", id,
						"error", err)
					res.Failed = append(res.Failed, id)
					continue
				}
				res.Copied++
			}
		}
		return res, nil
	}, c.refresher(sess))
}
