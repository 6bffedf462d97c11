package tui

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/payment"
)

// waitModel is the payment-success screen: it confirms the session named
// in the return URL and shows the outcome.
type waitModel struct {
	poller    *payment.Poller
	db        *sql.DB
	returnURL string
	shareBase string

	ctx    context.Context
	cancel context.CancelFunc

	spinner  spinner.Model
	result   *payment.Result
	quitting bool
}

func newWaitModel(poller *payment.Poller, db *sql.DB, returnURL, shareBase string) waitModel {
	ctx, cancel := context.WithCancel(context.Background())
	return waitModel{
		poller:    poller,
		db:        db,
		returnURL: returnURL,
		shareBase: shareBase,
		ctx:       ctx,
		cancel:    cancel,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m waitModel) Init() tea.Cmd {
	return tea.Batch(
		awaitPaymentURL(m.ctx, m.poller, m.db, m.returnURL),
		m.spinner.Tick,
	)
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.result != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case paymentResultMsg:
		if msg.result.State == payment.StateCanceled {
			return m, nil
		}
		res := msg.result
		m.result = &res
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", "enter":
			if msg.String() == "enter" && m.result == nil {
				return m, nil
			}
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.result == nil {
		if m.quitting {
			return "Stopped waiting. The payment may still complete; check again later.\n"
		}
		return m.spinner.View() + " Confirming your payment...\n\n" + footerStyle.Render("q: stop waiting") + "\n"
	}

	var s string
	switch m.result.State {
	case payment.StateComplete:
		s = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)).Render(m.result.Message())
		if m.result.Journey != nil {
			if link, err := journeys.ShareURL(m.shareBase, *m.result.Journey); err == nil {
				s += "\n\nShare this link with the recipient:\n" + linkStyle.Render(link)
			}
		}
	case payment.StateTimeout:
		s = textStyle.Render(m.result.Message())
	default:
		s = textRedStyle.Render(m.result.Message())
	}
	if m.quitting {
		return s + "\n"
	}
	return s + "\n\n" + footerStyle.Render("enter: close") + "\n"
}

// RunPaymentWait confirms the checkout session named in returnURL.
// The returned result has StateCanceled when the user stopped waiting.
func RunPaymentWait(poller *payment.Poller, db *sql.DB, returnURL, shareBase string) (payment.Result, error) {
	p := tea.NewProgram(newWaitModel(poller, db, returnURL, shareBase))
	final, err := p.Run()
	if err != nil {
		return payment.Result{}, err
	}
	m, ok := final.(waitModel)
	if !ok || m.result == nil {
		return payment.Result{State: payment.StateCanceled}, nil
	}
	return *m.result, nil
}
