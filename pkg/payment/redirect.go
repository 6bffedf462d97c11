package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

// ErrNoCheckoutURL is returned when neither the server nor the configured
// template gives a checkout location.
var ErrNoCheckoutURL = errors.New("no checkout URL for session")

// Redirector hands the payer off to the hosted checkout page.
// An error leaves the payer on the payment screen.
type Redirector interface {
	Redirect(ctx context.Context, session journeys.CheckoutSession) error
}

// RedirectorFunc adapts a function to Redirector.
type RedirectorFunc func(ctx context.Context, session journeys.CheckoutSession) error

func (f RedirectorFunc) Redirect(ctx context.Context, session journeys.CheckoutSession) error {
	return f(ctx, session)
}

// CheckoutURL returns the server-provided url, or fills template with the
// session id ("{session_id}").
func CheckoutURL(session journeys.CheckoutSession, template string) (string, error) {
	if u := strings.TrimSpace(session.URL); u != "" {
		return u, nil
	}
	if template == "" || session.ID == "" {
		return "", ErrNoCheckoutURL
	}
	return strings.ReplaceAll(template, "{session_id}", session.ID), nil
}

// TerminalRedirector prints the checkout link, and a QR code of it when QR is set.
type TerminalRedirector struct {
	Out      io.Writer
	Template string
	QR       func(text string) (string, error)
}

func (r TerminalRedirector) Redirect(ctx context.Context, session journeys.CheckoutSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	link, err := CheckoutURL(session, r.Template)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "Complete your payment at:\n  %s\n", link)
	if r.QR != nil {
		code, err := r.QR(link)
		if err != nil {
			return fmt.Errorf("failed to render checkout QR: %w", err)
		}
		fmt.Fprintf(r.Out, "\n%s\n", code)
	}
	return nil
}
