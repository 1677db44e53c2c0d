package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/collection"
)

func (a *app) collectionCommand(ctx context.Context, args []string) error {
	sess, err := a.session(true)
	if err != nil {
		return err
	}
	if err := a.ledger.Fetch(ctx, sess); err != nil {
		return err
	}

	if len(args) == 0 {
		displayCollection(a.ledger.Entries(sess), a.ledger.GetStats(sess), a.catalog)
		return nil
	}

	var res collection.Result
	switch sub, rest := args[0], args[1:]; sub {
	case "add":
		if len(rest) < 1 || len(rest) > 3 {
			return errUsage
		}
		qty, err := quantityArg(rest, 1, 1)
		if err != nil {
			return err
		}
		source := collection.DefaultSource
		if len(rest) == 3 {
			source = rest[2]
		}
		res, err = a.ledger.AddCard(ctx, sess, rest[0], qty, source)
		if err != nil {
			return err
		}

	case "remove":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		qty, err := quantityArg(rest, 1, 1)
		if err != nil {
			return err
		}
		res, err = a.ledger.RemoveCard(ctx, sess, rest[0], qty)
		if err != nil {
			return err
		}

	case "set":
		if len(rest) != 2 {
			return errUsage
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", rest[1])
		}
		res, err = a.ledger.UpdateQuantity(ctx, sess, rest[0], qty)
		if err != nil {
			return err
		}

	case "fav":
		if len(rest) < 1 || len(rest) > 2 {
			return errUsage
		}
		on := !a.ledger.IsFavorite(sess, rest[0])
		if len(rest) == 2 {
			switch rest[1] {
			case "on":
				on = true
			case "off":
				on = false
			default:
				return errUsage
			}
		}
		res, err = a.ledger.ToggleFavorite(ctx, sess, rest[0], on)
		if err != nil {
			return err
		}

	case "completion":
		displayCompletion(a.ledger.Completion(sess, a.catalog))
		return nil

	default:
		return errUsage
	}

	if res.Message != "" {
		fmt.Println(res.Message)
	}
	if state, err := a.ledger.State(sess); err != nil {
		fmt.Printf("Warning: collection is %s (%s)\n", state, errorText(err))
	}
	return nil
}

// quantityArg parses args[i] as a positive quantity, defaulting to def when
// absent.
func quantityArg(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid quantity %q", args[i])
	}
	return n, nil
}
