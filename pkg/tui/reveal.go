package tui

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/payment"
	"github.com/unowned-ai/giftjourney/pkg/reveal"
)

// RevealOptions configures the reveal program. Exactly one of JourneyID
// (creator preview) or Token (recipient) is set.
type RevealOptions struct {
	Client    *journeys.Client
	JourneyID string
	Token     string
	// ShareBase is the web origin used for reveal and social share links.
	ShareBase string

	Poller      *payment.Poller
	Redirector  payment.Redirector
	CheckoutURL string // template with {session_id}, used when the server sends no url
	QR          func(text string) (string, error)

	// DB is the optional local registry; checkouts and payments are recorded in it.
	DB *sql.DB
}

// RevealOutcome is what the reveal program ended with.
type RevealOutcome struct {
	BackToEdit bool
	JourneyID  string
	Payment    *payment.Result
}

type revealSource struct {
	journeyID string
	token     string
}

type revealModel struct {
	opts   RevealOptions
	source revealSource
	mode   reveal.Mode

	// ctx bounds every request and the payment poll; cancelled on quit.
	ctx    context.Context
	cancel context.CancelFunc

	session *reveal.Session
	loading bool
	loadErr error
	spinner spinner.Model

	checkoutPending bool
	checkoutErr     string
	checkout        *checkoutStartedMsg
	checkoutQR      string

	waiting  bool
	result   *payment.Result
	shareURL string

	width, height int
	quitting      bool
	backToEdit    bool
}

func newRevealModel(opts RevealOptions) revealModel {
	mode := reveal.ModePreview
	if opts.Token != "" {
		mode = reveal.ModeFinal
	}
	if opts.Poller == nil {
		opts.Poller = payment.NewPoller(opts.Client)
	}
	ctx, cancel := context.WithCancel(context.Background())

	return revealModel{
		opts:    opts,
		source:  revealSource{journeyID: opts.JourneyID, token: opts.Token},
		mode:    mode,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m revealModel) Init() tea.Cmd {
	return tea.Batch(
		loadJourney(m.ctx, m.opts.Client, m.source),
		m.spinner.Tick,
	)
}

func (m revealModel) busy() bool {
	return m.loading || m.checkoutPending || m.waiting
}

func (m revealModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case journeyLoadedMsg:
		m.loading = false
		if m.result != nil {
			// Reload after payment: only the share link changes.
			m.shareURL, _ = journeys.ShareURL(m.opts.ShareBase, msg.journey)
			return m, nil
		}
		m.session = reveal.NewSession(msg.journey, m.mode)
		return m, nil

	case loadFailedMsg:
		m.loading = false
		if m.result != nil {
			return m, nil
		}
		m.loadErr = msg.err
		return m, nil

	case checkoutStartedMsg:
		m.checkoutPending = false
		m.checkout = &msg
		if m.opts.QR != nil && msg.link != "" {
			if qr, err := m.opts.QR(msg.link); err == nil {
				m.checkoutQR = qr
			}
		}
		m.waiting = true
		return m, tea.Batch(
			awaitPayment(m.ctx, m.opts.Poller, m.opts.DB, msg.session.ID),
			m.spinner.Tick,
		)

	case checkoutFailedMsg:
		m.checkoutPending = false
		m.checkoutErr = journeys.CheckoutErrorMessage(msg.err)
		return m, nil

	case paymentResultMsg:
		m.waiting = false
		if msg.result.State == payment.StateCanceled {
			return m, nil
		}
		res := msg.result
		m.result = &res
		if res.State != payment.StateComplete {
			return m, nil
		}
		if res.Journey != nil {
			m.shareURL, _ = journeys.ShareURL(m.opts.ShareBase, *res.Journey)
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(loadJourney(m.ctx, m.opts.Client, m.source), m.spinner.Tick)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m.quit()
		case "b":
			if m.mode == reveal.ModePreview {
				m.backToEdit = true
				return m.quit()
			}
			return m, nil
		}

		if m.loading || m.loadErr != nil || m.session == nil {
			return m, nil
		}

		switch msg.String() {
		case "enter", " ", "space":
			return m.advance()
		case "p":
			return m.proceedToPayment()
		case "r":
			if m.result != nil && m.result.State == payment.StateTimeout && m.checkout != nil {
				m.result = nil
				m.waiting = true
				return m, tea.Batch(
					awaitPayment(m.ctx, m.opts.Poller, m.opts.DB, m.checkout.session.ID),
					m.spinner.Tick,
				)
			}
		}
	}

	return m, nil
}

func (m revealModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)
}

// advance is the primary button of whatever screen is showing.
func (m revealModel) advance() (tea.Model, tea.Cmd) {
	switch m.session.View().(type) {
	case reveal.Welcome:
		m.session.Begin()
	case reveal.AtStop:
		m.session.Next()
	case reveal.Summary, reveal.Payment:
		return m.proceedToPayment()
	}
	return m, nil
}

func (m revealModel) proceedToPayment() (tea.Model, tea.Cmd) {
	switch m.session.View().(type) {
	case reveal.Summary:
		m.session.ContinueToPayment()
		return m, nil
	case reveal.Payment:
		if m.checkoutPending || m.checkout != nil || m.session.Journey().Paid {
			return m, nil
		}
		m.checkoutPending = true
		m.checkoutErr = ""
		journeyID := m.session.Journey().ID
		return m, tea.Batch(
			startCheckout(m.ctx, m.opts.Client, m.opts.DB, m.opts.Redirector, m.opts.CheckoutURL, journeyID),
			m.spinner.Tick,
		)
	}
	return m, nil
}

func (m revealModel) View() string {
	if m.quitting {
		return "Wrapping up the journey... see you soon.\n"
	}
	if m.loading && m.session == nil {
		return m.spinner.View() + " Loading journey...\n"
	}
	if m.loadErr != nil {
		msg := textRedStyle.Render(journeys.LoadErrorMessage(m.loadErr))
		if m.mode == reveal.ModePreview {
			return msg + "\n\n" + footerStyle.Render("b: back to journey • q: quit") + "\n"
		}
		return msg + "\n"
	}

	j := m.session.Journey()
	title := j.Title
	if m.mode == reveal.ModePreview {
		title += " (preview)"
	}
	titleBar := titleStyle.Width(m.width).Render(title)

	var body string
	var hints []string
	switch v := m.session.View().(type) {
	case reveal.Welcome:
		body = m.welcomeView()
		hints = append(hints, "enter: begin")
	case reveal.AtStop:
		body = m.stopView(v.Index)
		hints = append(hints, "enter: "+strings.ToLower(m.session.AdvanceLabel()))
	case reveal.Summary:
		body = m.summaryView()
		if m.mode == reveal.ModePreview {
			hints = append(hints, "p: continue to payment")
		}
	case reveal.Payment:
		body = m.paymentView()
		if m.checkout == nil && !m.checkoutPending && !j.Paid {
			hints = append(hints, "enter: pay")
		}
	}
	if m.mode == reveal.ModePreview {
		hints = append(hints, "b: back to edit")
	}
	hints = append(hints, "q: quit")
	footer := strings.Join(hints, " • ")

	card := revealCardStyle
	if m.width > bordersAndPaddingWidth*2 {
		card = card.Width(m.width - bordersAndPaddingWidth*2)
	}
	return titleBar + "\n\n" + card.Render(body) + "\n\n" + footerStyle.Render(footer) + "\n"
}

func (m revealModel) welcomeView() string {
	var b strings.Builder
	b.WriteString(iconGlyph("gift") + "\n\n")
	b.WriteString(subtitleStyle.Render("A gift is waiting for you...") + "\n\n")
	b.WriteString(textStyle.Render("Someone special has created a thoughtful journey just for you!") + "\n\n")
	b.WriteString(buttonStyle.Render("Begin the Reveal"))
	return b.String()
}

func (m revealModel) stopView(index int) string {
	stop, ok := m.session.CurrentStop()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(footerStyle.Render(fmt.Sprintf("Stop %d of %d", index+1, m.session.StopCount())) + "\n\n")
	b.WriteString(subtitleStyle.Render(stop.Title) + "\n\n")

	switch media := journeys.MediaOf(stop); media.Kind {
	case journeys.MediaImage:
		b.WriteString(mediaStyle.Render("🖼  ") + linkStyle.Render(media.Source) + "\n\n")
	case journeys.MediaIcon:
		b.WriteString(mediaStyle.Render(iconGlyph(media.Source)+"  "+media.Source) + "\n\n")
	}

	if stop.Note != "" {
		b.WriteString(textStyle.Render(stop.Note) + "\n\n")
	}

	b.WriteString(buttonStyle.Render(m.session.AdvanceLabel()))
	if stop.ExternalURL != "" {
		b.WriteString("   Learn more: " + linkStyle.Render(stop.ExternalURL))
	}
	return b.String()
}

func (m revealModel) summaryView() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("That's the whole journey!") + "\n\n")
	for i, s := range m.session.Stops() {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, s.Title))
	}

	if m.mode == reveal.ModePreview {
		b.WriteString("\n" + buttonStyle.Render("Continue to Payment"))
		return b.String()
	}

	if m.opts.ShareBase != "" {
		links := journeys.ShareLinks(m.opts.ShareBase, m.session.Journey().ID)
		b.WriteString("\nShare on X: " + linkStyle.Render(links.X) + "\n")
		b.WriteString("Share on Facebook: " + linkStyle.Render(links.Facebook))
	}
	return b.String()
}

func (m revealModel) paymentView() string {
	var b strings.Builder
	j := m.session.Journey()
	if j.Paid && m.result == nil {
		b.WriteString(subtitleStyle.Render("Already paid") + "\n\n")
		if link, err := journeys.ShareURL(m.opts.ShareBase, j); err == nil {
			b.WriteString("Share this link with the recipient:\n" + linkStyle.Render(link))
		} else {
			b.WriteString(textStyle.Render("The share link is not ready yet."))
		}
		return b.String()
	}
	b.WriteString(subtitleStyle.Render("Unlock sharing") + "\n\n")
	b.WriteString(textStyle.Render(fmt.Sprintf("Pay once to get a shareable link for %q.", j.Title)) + "\n\n")

	switch {
	case m.result != nil:
		b.WriteString(m.resultView())
		return b.String()
	case m.checkoutPending:
		b.WriteString(m.spinner.View() + " Creating checkout session...")
		return b.String()
	case m.checkout != nil:
		if m.checkout.link != "" {
			b.WriteString("Complete your payment at:\n" + linkStyle.Render(m.checkout.link) + "\n")
			if m.checkoutQR != "" {
				b.WriteString("\n" + m.checkoutQR)
			}
			b.WriteString("\n")
		}
		b.WriteString(m.spinner.View() + " Waiting for payment confirmation...")
		return b.String()
	}

	b.WriteString(buttonStyle.Render("Pay and share"))
	if m.checkoutErr != "" {
		b.WriteString("\n\n" + textRedStyle.Render(m.checkoutErr))
	}
	return b.String()
}

func (m revealModel) resultView() string {
	switch m.result.State {
	case payment.StateComplete:
		s := lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)).Render(m.result.Message())
		if m.shareURL != "" {
			s += "\n\nShare this link with the recipient:\n" + linkStyle.Render(m.shareURL)
		} else if m.loading {
			s += "\n\n" + m.spinner.View() + " Fetching your share link..."
		}
		return s
	case payment.StateTimeout:
		return textStyle.Render(m.result.Message()) + "\n\n" + footerStyle.Render("r: check again")
	default:
		return textRedStyle.Render(m.result.Message())
	}
}

func (m revealModel) outcome() RevealOutcome {
	out := RevealOutcome{BackToEdit: m.backToEdit, JourneyID: m.source.journeyID, Payment: m.result}
	if m.session != nil {
		out.JourneyID = m.session.Journey().ID
	}
	return out
}

// RunReveal shows a journey one stop at a time until the user quits.
func RunReveal(opts RevealOptions) (RevealOutcome, error) {
	p := tea.NewProgram(newRevealModel(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return RevealOutcome{}, err
	}
	m, ok := final.(revealModel)
	if !ok {
		return RevealOutcome{}, nil
	}
	m.cancel()
	return m.outcome(), nil
}
