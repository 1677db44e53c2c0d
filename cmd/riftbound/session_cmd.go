package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Naokyoo/Riftbound-manager/internal/session"
)

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	sess, err := session.Verify(ctx, a.client, args[0])
	if err != nil {
		if errors.Is(err, session.ErrSessionInvalid) {
			return fmt.Errorf("the service rejected this token")
		}
		return err
	}
	if err := a.store.Save(sess.Token); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s\n", userLabel(sess))
	fmt.Printf("Credential stored in %s\n", a.store.Path())
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if sess, err := a.session(false); err == nil {
		a.ledger.Forget(sess)
		a.coordinator.Forget(sess)
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Println("Not signed in.")
		return nil
	}

	sess, err := session.Verify(ctx, a.client, token)
	if errors.Is(err, session.ErrSessionInvalid) {
		fmt.Println("The stored credential is no longer accepted. Run 'riftbound login <token>'.")
		return nil
	}
	if err != nil {
		return err
	}

	displayUser(sess, time.Now())
	return nil
}

func userLabel(sess session.Session) string {
	if sess.User == nil {
		return "unknown user"
	}
	if sess.User.Username != "" {
		return sess.User.Username
	}
	return sess.User.Email
}

func displayUser(sess session.Session, now time.Time) {
	fmt.Println("Session")
	fmt.Println("=======")
	fmt.Printf("  User:     %s\n", userLabel(sess))
	if sess.User != nil {
		if sess.User.Email != "" {
			fmt.Printf("  Email:    %s\n", sess.User.Email)
		}
		fmt.Printf("  ID:       %s\n", sess.User.ID)
	}
	if sess.Expired(now) {
		fmt.Println("  Status:   expired")
	} else {
		fmt.Println("  Status:   active")
	}
}
