package remotetest

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cardid"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/cards"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/remote"
)

// Deck size targets used by the validate endpoint.
const (
	mainDeckSize     = 40
	runeCount        = 12
	battlefieldCount = 3
)

func (s *Server) me(w http.ResponseWriter, r *http.Request, acc *account) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": acc.user})
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request, acc *account) {
	entries := make([]remote.OwnershipEntry, 0, len(acc.collection))
	for _, e := range acc.collection {
		out := *e
		if card, ok := s.lookup(e.CardID); ok {
			out.Name = card.Name
			out.Rarity = card.RarityLabel()
			out.Type = card.PrimaryType()
		}
		entries = append(entries, out)
	}
	success(w, remote.CollectionState{Cards: entries})
}

func findEntry(acc *account, id string) (int, *remote.OwnershipEntry) {
	for i, e := range acc.collection {
		if e.CardID == id {
			return i, e
		}
	}
	return -1, nil
}

func (s *Server) addCollectionCard(w http.ResponseWriter, r *http.Request, acc *account) {
	var req struct {
		CardID   string `json:"cardId"`
		Quantity int    `json:"quantity"`
		Source   string `json:"source"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.CardID == "" {
		badRequest(w, "cardId is required")
		return
	}
	if req.Quantity <= 0 {
		badRequest(w, "Quantity must be positive")
		return
	}
	if !s.knownCard(req.CardID) {
		notFound(w, "Card not found")
		return
	}

	id := cardid.Normalize(req.CardID)
	_, entry := findEntry(acc, id)
	if entry == nil {
		entry = &remote.OwnershipEntry{CardID: id, Source: req.Source}
		acc.collection = append(acc.collection, entry)
	}
	entry.Quantity += req.Quantity

	created(w, *entry)
}

func (s *Server) removeCollectionCard(w http.ResponseWriter, r *http.Request, acc *account) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	id := cardid.Normalize(chi.URLParam(r, "cardID"))
	i, entry := findEntry(acc, id)
	if entry == nil {
		notFound(w, "Card not in collection")
		return
	}

	entry.Quantity -= req.Quantity
	if entry.Quantity <= 0 {
		acc.collection = append(acc.collection[:i], acc.collection[i+1:]...)
		success(w, nil)
		return
	}
	success(w, *entry)
}

func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request, acc *account) {
	var req struct {
		IsFavorite bool `json:"isFavorite"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	_, entry := findEntry(acc, cardid.Normalize(chi.URLParam(r, "cardID")))
	if entry == nil {
		notFound(w, "Card not in collection")
		return
	}
	entry.IsFavorite = req.IsFavorite
	success(w, *entry)
}

func (s *Server) listDecks(w http.ResponseWriter, r *http.Request, acc *account) {
	decks := make([]remote.DeckRecord, 0, len(acc.decks))
	for _, d := range acc.decks {
		decks = append(decks, copyDeck(d))
	}
	success(w, decks)
}

func findDeck(acc *account, id string) (int, *remote.DeckRecord) {
	for i, d := range acc.decks {
		if d.ID == id {
			return i, d
		}
	}
	return -1, nil
}

func (s *Server) createDeck(w http.ResponseWriter, r *http.Request, acc *account) {
	var req remote.CreateDeckRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.Name == "" {
		badRequest(w, "Name is required")
		return
	}

	deck := &remote.DeckRecord{
		ID:          uuid.NewString(),
		Name:        req.Name,
		LegendID:    req.LegendID,
		MainFaction: req.MainFaction,
		Description: req.Description,
		Cards:       []remote.DeckCardLine{},
	}
	acc.decks = append(acc.decks, deck)
	created(w, copyDeck(deck))
}

type detailedLine struct {
	remote.DeckCardLine
	Card *cards.Card `json:"card,omitempty"`
}

func (s *Server) getDeckDetailed(w http.ResponseWriter, r *http.Request, acc *account) {
	_, deck := findDeck(acc, chi.URLParam(r, "deckID"))
	if deck == nil {
		notFound(w, "Deck not found")
		return
	}

	lines := make([]detailedLine, 0, len(deck.Cards))
	for _, line := range deck.Cards {
		card, _ := s.lookup(line.CardID)
		lines = append(lines, detailedLine{DeckCardLine: line, Card: card})
	}
	legend, _ := s.lookup(deck.LegendID)

	success(w, map[string]any{
		"id":          deck.ID,
		"name":        deck.Name,
		"legendId":    deck.LegendID,
		"legend":      legend,
		"mainFaction": deck.MainFaction,
		"description": deck.Description,
		"cards":       lines,
		"isValid":     deck.IsValid,
		"wins":        deck.Wins,
		"losses":      deck.Losses,
	})
}

func (s *Server) updateDeck(w http.ResponseWriter, r *http.Request, acc *account) {
	var req remote.DeckUpdate
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	_, deck := findDeck(acc, chi.URLParam(r, "deckID"))
	if deck == nil {
		notFound(w, "Deck not found")
		return
	}
	if req.Name != nil {
		if *req.Name == "" {
			badRequest(w, "Name is required")
			return
		}
		deck.Name = *req.Name
	}
	if req.Description != nil {
		deck.Description = *req.Description
	}
	if req.MainFaction != nil {
		deck.MainFaction = *req.MainFaction
	}
	if req.LegendID != nil {
		deck.LegendID = *req.LegendID
	}
	success(w, copyDeck(deck))
}

func (s *Server) deleteDeck(w http.ResponseWriter, r *http.Request, acc *account) {
	i, deck := findDeck(acc, chi.URLParam(r, "deckID"))
	if deck == nil {
		notFound(w, "Deck not found")
		return
	}
	acc.decks = append(acc.decks[:i], acc.decks[i+1:]...)
	success(w, nil)
}

func (s *Server) addDeckCard(w http.ResponseWriter, r *http.Request, acc *account) {
	var req struct {
		CardID   string `json:"cardId"`
		Quantity int    `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.Quantity <= 0 {
		badRequest(w, "Quantity must be positive")
		return
	}

	_, deck := findDeck(acc, chi.URLParam(r, "deckID"))
	if deck == nil {
		notFound(w, "Deck not found")
		return
	}
	if !s.knownCard(req.CardID) {
		notFound(w, "Card not found")
		return
	}

	id := cardid.Normalize(req.CardID)
	idx := -1
	for i, line := range deck.Cards {
		if line.CardID == id {
			idx = i
			break
		}
	}
	current := 0
	if idx >= 0 {
		current = deck.Cards[idx].Quantity
	}
	if card, ok := s.lookup(id); ok && cards.IsMainDeckType(card.PrimaryType()) && current+req.Quantity > s.maxCopies {
		badRequest(w, fmt.Sprintf("Maximum %d copies per card", s.maxCopies))
		return
	}

	if idx >= 0 {
		deck.Cards[idx].Quantity += req.Quantity
	} else {
		deck.Cards = append(deck.Cards, remote.DeckCardLine{CardID: id, Quantity: req.Quantity})
	}
	success(w, copyDeck(deck))
}

func (s *Server) removeDeckCard(w http.ResponseWriter, r *http.Request, acc *account) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	_, deck := findDeck(acc, chi.URLParam(r, "deckID"))
	if deck == nil {
		notFound(w, "Deck not found")
		return
	}

	id := cardid.Normalize(chi.URLParam(r, "cardID"))
	for i, line := range deck.Cards {
		if line.CardID != id {
			continue
		}
		deck.Cards[i].Quantity -= req.Quantity
		if deck.Cards[i].Quantity <= 0 {
			deck.Cards = append(deck.Cards[:i], deck.Cards[i+1:]...)
		}
		success(w, copyDeck(deck))
		return
	}
	notFound(w, "Card not in deck")
}

func (s *Server) validateDeck(w http.ResponseWriter, r *http.Request, acc *account) {
	_, deck := findDeck(acc, chi.URLParam(r, "deckID"))
	if deck == nil {
		notFound(w, "Deck not found")
		return
	}

	var main, runes, battlefields int
	for _, line := range deck.Cards {
		card, ok := s.lookup(line.CardID)
		if !ok {
			continue
		}
		switch cards.BucketOf(card) {
		case cards.BucketRunes:
			runes += line.Quantity
		case cards.BucketBattlefields:
			battlefields += line.Quantity
		default:
			main += line.Quantity
		}
	}

	msg := "Deck is valid"
	switch {
	case deck.LegendID == "":
		msg = "Deck needs a legend"
	case main != mainDeckSize:
		msg = fmt.Sprintf("Deck needs %d main cards (has %d)", mainDeckSize, main)
	case runes != runeCount:
		msg = fmt.Sprintf("Deck needs %d runes (has %d)", runeCount, runes)
	case battlefields != battlefieldCount:
		msg = fmt.Sprintf("Deck needs %d battlefields (has %d)", battlefieldCount, battlefields)
	}
	deck.IsValid = msg == "Deck is valid"

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"isValid": deck.IsValid,
		"message": msg,
	})
}

func (s *Server) recordGameResult(w http.ResponseWriter, r *http.Request, acc *account) {
	var req struct {
		Won bool `json:"won"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	_, deck := findDeck(acc, chi.URLParam(r, "deckID"))
	if deck == nil {
		notFound(w, "Deck not found")
		return
	}
	if req.Won {
		deck.Wins++
	} else {
		deck.Losses++
	}
	success(w, copyDeck(deck))
}
