package tui

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/store"
)

// Add-stop form steps
const (
	stopStepTitle = iota
	stopStepNote
	stopStepMedia
	stopStepLink
)

type studioModel struct {
	client    *journeys.Client
	db        *sql.DB
	shareBase string

	saved   []store.SavedJourney
	journey *journeys.Journey // Selected journey with its stops, nil until loaded
	stops   []journeys.Stop   // Stops of the selected journey in display order

	columnFocus int // 0 = journeys, 1 = stops, 2 = stop details
	width       int
	height      int
	err         error

	dbFilename string

	quitting  bool
	previewID string

	journeyCursor        int
	journeyCreating      bool
	journeyCreatingError string
	journeyTitleInput    textinput.Model

	journeyForgetting       bool
	journeyForgetConfirmIdx int // 0 = "Yes" selected, 1 = "No"

	stopCursor      int
	stopAdding      bool
	stopStep        int
	stopMediaKind   journeys.MediaKind // MediaImage or MediaIcon
	stopInputs      [4]textinput.Model
	stopAddingError string

	// Animation state
	marqueeOffset int
	marqueeTimer  int
}

func initStudioModel(client *journeys.Client, db *sql.DB, shareBase string) studioModel {
	dbFilename := "in memory"
	if name, file := getDbPragmaList(db); name == "" {
		dbFilename = ""
	} else if file != "" {
		dbFilename = filepath.Base(file)
	}

	jtitle := textinput.New()
	jtitle.Placeholder = "Journey title"
	jtitle.CharLimit = 256

	var inputs [4]textinput.Model
	placeholders := [4]string{"Stop title", "A note for the recipient (optional)", "https://example.com/image.jpg", "https://example.com (optional)"}
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = placeholders[i]
		inputs[i].CharLimit = 1024
	}

	return studioModel{
		client:            client,
		db:                db,
		shareBase:         shareBase,
		dbFilename:        dbFilename,
		journeyTitleInput: jtitle,
		stopInputs:        inputs,
		stopMediaKind:     journeys.MediaImage,
	}
}

func (m studioModel) Init() tea.Cmd {
	return tea.Batch(
		listSavedJourneys(m.db),
		tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		}),
	)
}

func (m studioModel) selectedSaved() (store.SavedJourney, bool) {
	if m.journeyCursor < 0 || m.journeyCursor >= len(m.saved) {
		return store.SavedJourney{}, false
	}
	return m.saved[m.journeyCursor], true
}

func (m studioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case studioErrMsg:
		m.err = msg.err
		return m, nil

	case savedJourneysMsg:
		m.saved = msg
		if m.journeyCursor >= len(m.saved) {
			m.journeyCursor = 0
		}
		if sj, ok := m.selectedSaved(); ok {
			return m, fetchJourneyDetails(m.client, m.db, sj.ID)
		}
		m.journey, m.stops = nil, nil
		return m, nil

	case journeyDetailsMsg:
		sj, ok := m.selectedSaved()
		if !ok || sj.ID != msg.journey.ID {
			// Selection moved on while this was loading.
			return m, nil
		}
		j := msg.journey
		m.journey = &j
		m.stops = journeys.SortStops(j.Stops)
		m.stopCursor = 0
		m.saved[m.journeyCursor].StopCount = len(j.Stops)
		m.saved[m.journeyCursor].Paid = j.Paid
		return m, nil

	case journeyCreatedMsg:
		m.journeyCursor = 0
		m.columnFocus = 0
		return m, listSavedJourneys(m.db)

	case stopAddedMsg:
		if m.journey == nil || m.journey.ID != msg.journeyID {
			return m, nil
		}
		j := m.journey.WithStop(msg.stop)
		m.journey = &j
		m.stops = journeys.SortStops(j.Stops)
		for i := range m.saved {
			if m.saved[i].ID == j.ID {
				m.saved[i].StopCount = len(j.Stops)
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.journeyCreating {
			return m.updateJourneyForm(msg)
		}
		if m.stopAdding {
			return m.updateStopForm(msg)
		}
		if m.journeyForgetting {
			return m.updateForgetConfirm(msg)
		}

		// Root Navigation Mode
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

		case "up", "k":
			if m.columnFocus == 0 && m.journeyCursor > 0 {
				m.journeyCursor--
				m.journey, m.stops = nil, nil
				return m, fetchJourneyDetails(m.client, m.db, m.saved[m.journeyCursor].ID)
			}
			if m.columnFocus == 1 && m.stopCursor > 0 {
				m.stopCursor--
			}

		case "down", "j":
			if m.columnFocus == 0 && m.journeyCursor < len(m.saved)-1 {
				m.journeyCursor++
				m.journey, m.stops = nil, nil
				return m, fetchJourneyDetails(m.client, m.db, m.saved[m.journeyCursor].ID)
			}
			if m.columnFocus == 1 && m.stopCursor < len(m.stops)-1 {
				m.stopCursor++
			}

		case "right", "l":
			if m.columnFocus == 0 && len(m.stops) > 0 {
				m.columnFocus = 1
				m.stopCursor = 0
			} else if m.columnFocus == 1 {
				m.columnFocus = 2
			}
			return m, nil

		case "left", "h":
			if m.columnFocus > 0 {
				m.columnFocus--
			}
			return m, nil

		case "n":
			m.journeyCreatingError = ""
			m.journeyTitleInput.Reset()
			m.journeyTitleInput.Focus()
			m.journeyCreating = true
			return m, nil

		case "a":
			// A paid journey is shared as it is.
			if m.journey == nil || m.journey.Paid {
				return m, nil
			}
			m.resetStopForm()
			m.stopAdding = true
			return m, nil

		case "d":
			if m.columnFocus == 0 && len(m.saved) > 0 {
				m.journeyForgetConfirmIdx = 1
				m.journeyForgetting = true
			}
			return m, nil

		case "r":
			if sj, ok := m.selectedSaved(); ok {
				m.previewID = sj.ID
				m.quitting = true
				return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)
			}
		}

	case time.Time:
		// Update marquee animation every x ticks (adjust for speed)
		m.marqueeTimer++
		if m.marqueeTimer >= 10 {
			m.marqueeTimer = 0
			m.marqueeOffset++
		}
		return m, tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		})
	}

	return m, nil
}

func (m studioModel) updateJourneyForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		title := strings.TrimSpace(m.journeyTitleInput.Value())
		if title == "" {
			m.journeyCreatingError = "Journey title cannot be empty"
			return m, nil
		}
		m.journeyCreating = false
		m.journeyCreatingError = ""
		m.journeyTitleInput.Reset()
		return m, createJourney(m.client, m.db, title)

	case tea.KeyEsc:
		m.journeyCreating = false
		m.journeyTitleInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.journeyTitleInput, cmd = m.journeyTitleInput.Update(msg)
	return m, cmd
}

func (m *studioModel) resetStopForm() {
	m.stopStep = stopStepTitle
	m.stopAddingError = ""
	m.stopMediaKind = journeys.MediaImage
	for i := range m.stopInputs {
		m.stopInputs[i].Reset()
		m.stopInputs[i].Blur()
	}
	m.stopInputs[stopStepMedia].Placeholder = "https://example.com/image.jpg"
	m.stopInputs[stopStepTitle].Focus()
}

// stopFormInput collects the add-stop form into a StopInput.
func (m studioModel) stopFormInput() journeys.StopInput {
	in := journeys.StopInput{
		Title:       m.stopInputs[stopStepTitle].Value(),
		Note:        m.stopInputs[stopStepNote].Value(),
		ExternalURL: m.stopInputs[stopStepLink].Value(),
	}
	if m.stopMediaKind == journeys.MediaIcon {
		in.SetIcon(m.stopInputs[stopStepMedia].Value())
	} else {
		in.SetImage(m.stopInputs[stopStepMedia].Value())
	}
	return in.Normalized()
}

func (m studioModel) updateStopForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.stopAdding = false
		m.resetStopForm()
		return m, nil

	case tea.KeyTab:
		if m.stopStep == stopStepMedia {
			// Switching the media kind discards the other source.
			m.stopInputs[stopStepMedia].Reset()
			if m.stopMediaKind == journeys.MediaImage {
				m.stopMediaKind = journeys.MediaIcon
				m.stopInputs[stopStepMedia].Placeholder = "Icon name, e.g. gift"
			} else {
				m.stopMediaKind = journeys.MediaImage
				m.stopInputs[stopStepMedia].Placeholder = "https://example.com/image.jpg"
			}
		}
		return m, nil

	case tea.KeyEnter:
		if m.stopStep == stopStepTitle && strings.TrimSpace(m.stopInputs[stopStepTitle].Value()) == "" {
			m.stopAddingError = "Stop title cannot be empty"
			return m, nil
		}
		if m.stopStep < stopStepLink {
			m.stopAddingError = ""
			m.stopInputs[m.stopStep].Blur()
			m.stopStep++
			m.stopInputs[m.stopStep].Focus()
			return m, nil
		}

		in := m.stopFormInput()
		if err := in.Validate(); err != nil {
			m.stopAddingError = err.Error()
			return m, nil
		}
		j := *m.journey
		m.stopAdding = false
		m.resetStopForm()
		return m, addStop(m.client, m.db, j, in)
	}

	var cmd tea.Cmd
	m.stopInputs[m.stopStep], cmd = m.stopInputs[m.stopStep].Update(msg)
	return m, cmd
}

func (m studioModel) updateForgetConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.journeyForgetConfirmIdx = 0

	case "down", "j":
		m.journeyForgetConfirmIdx = 1

	case "enter":
		m.journeyForgetting = false
		if m.journeyForgetConfirmIdx != 0 {
			return m, nil
		}
		if err := store.ForgetJourney(context.Background(), m.db, m.saved[m.journeyCursor].ID); err != nil {
			m.err = err
			return m, nil
		}
		if m.journeyCursor > 0 {
			m.journeyCursor--
		}
		m.journey, m.stops = nil, nil
		m.columnFocus = 0
		return m, listSavedJourneys(m.db)

	case "esc":
		m.journeyForgetting = false
	}
	return m, nil
}

func (m studioModel) View() string {
	if m.quitting {
		if m.previewID != "" {
			return "Opening the preview...\n"
		}
		return "Closing the studio. Your journeys are saved.\n"
	}

	titleBar := titleStyle.Width(m.width).Render("Gift Journey Studio")

	leftWidth, middleWidth, rightWidth := m.dynamicColumnWidth()
	m.journeyTitleInput.Width = rightWidth - bordersAndPaddingWidth
	for i := range m.stopInputs {
		m.stopInputs[i].Width = rightWidth - bordersAndPaddingWidth
	}

	// Left column: saved journeys and info
	var left strings.Builder
	left.WriteString(subtitleStyle.Render("  Journeys") + "\n\n")
	if len(m.saved) == 0 {
		left.WriteString("No journeys yet. Press 'n' to create one.\n")
	}
	for i, sj := range m.saved {
		availableWidth := leftWidth - bordersAndPaddingWidth - 3
		name := sj.Title
		if sj.Paid {
			name = "✓ " + name
		}
		pointer := generateLinePointer(m.journeyCursor == i && m.columnFocus == 0, 2)
		if m.journeyCursor == i {
			name = marqueeText(name, m.marqueeOffset, availableWidth)
			left.WriteString(pointer + selectedStyle.Render(truncate(name, availableWidth)) + "\n")
		} else {
			left.WriteString(pointer + inactiveStyle.Render(truncate(name, availableWidth)) + "\n")
		}
	}
	dbStatus := 0
	if m.dbFilename != "" {
		dbStatus = 1
	}
	left.WriteString("\nRegistry: " + TextStatusColorize(m.dbFilename, dbStatus) + "\n")

	// Middle column: stops in display order
	var middle strings.Builder
	middle.WriteString(subtitleStyle.Render("  Stops") + "\n\n")
	switch {
	case m.journey == nil && len(m.saved) > 0:
		middle.WriteString("  Loading stops...\n")
	case m.journey == nil:
		middle.WriteString("  No journey selected.\n")
	case len(m.stops) == 0 && m.journey.Paid:
		middle.WriteString("  No stops.\n")
	case len(m.stops) == 0:
		middle.WriteString("  No stops yet. Press 'a' to add one.\n")
	default:
		for i, s := range m.stops {
			availableWidth := middleWidth - bordersAndPaddingWidth - 3
			pointer := generateLinePointer(i == m.stopCursor && m.columnFocus == 1, 2)
			style := inactiveStyle
			if i == m.stopCursor && m.columnFocus != 0 {
				style = selectedStyle
			}
			line := fmt.Sprintf("%d. %s", i+1, s.Title)
			middle.WriteString(pointer + style.Render(truncate(line, availableWidth)) + "\n")
		}
	}

	// Right column: forms, confirmation or stop details
	var right strings.Builder
	switch {
	case m.journeyCreating:
		right.WriteString(subtitleStyle.Render("Create New Journey") + "\n\n")
		right.WriteString("Title: " + m.journeyTitleInput.View() + "\n\n")
		right.WriteString("(enter to submit, esc to cancel)")
		if m.journeyCreatingError != "" {
			right.WriteString("\n\n" + textRedStyle.Render(m.journeyCreatingError))
		}

	case m.stopAdding:
		right.WriteString(subtitleStyle.Render("Add Stop") + "\n\n")
		right.WriteString("Title: " + m.stopInputs[stopStepTitle].View() + "\n")
		right.WriteString("Note: " + m.stopInputs[stopStepNote].View() + "\n")
		mediaLabel := "Image URL"
		if m.stopMediaKind == journeys.MediaIcon {
			mediaLabel = "Icon"
		}
		right.WriteString(mediaLabel + ": " + m.stopInputs[stopStepMedia].View() + "\n")
		right.WriteString("Learn more link: " + m.stopInputs[stopStepLink].View() + "\n\n")
		right.WriteString("(enter for next field, tab to switch image/icon, esc to cancel)")
		if m.stopAddingError != "" {
			right.WriteString("\n\n" + textRedStyle.Render(m.stopAddingError))
		}

	case m.journeyForgetting:
		right.WriteString(subtitleStyle.Render("Forget Journey") + "\n\n")
		right.WriteString("Title: " + textRedStyle.Render(m.saved[m.journeyCursor].Title) + "\n")
		right.WriteString("It stays on the server; only this machine forgets it.\n\n")
		yesOpt, noOpt := "Yes", "No"
		if m.journeyForgetConfirmIdx == 0 {
			yesOpt = selectedStyle.Render(" >" + yesOpt)
			noOpt = inactiveStyle.Render("  " + noOpt)
		} else {
			yesOpt = inactiveStyle.Render("  " + yesOpt)
			noOpt = selectedStyle.Render(" >" + noOpt)
		}
		right.WriteString(fmt.Sprintf("%s\n%s\n\n", yesOpt, noOpt))
		right.WriteString("(enter to confirm, esc to cancel, up/down to switch)")

	case len(m.stops) > 0 && m.columnFocus > 0:
		s := m.stops[m.stopCursor]
		right.WriteString(subtitleStyle.Render("Stop") + "\n\n")
		right.WriteString(lipgloss.NewStyle().Bold(true).Render(s.Title) + "\n\n")
		switch media := journeys.MediaOf(s); media.Kind {
		case journeys.MediaImage:
			right.WriteString("Image: " + linkStyle.Render(media.Source) + "\n")
		case journeys.MediaIcon:
			right.WriteString("Icon: " + mediaStyle.Render(iconGlyph(media.Source)+" "+media.Source) + "\n")
		}
		if s.ExternalURL != "" {
			right.WriteString("Learn more: " + linkStyle.Render(s.ExternalURL) + "\n")
		}
		if s.Note != "" {
			right.WriteString("\n" + textStyle.Render(s.Note))
		}

	case m.journey != nil:
		right.WriteString(subtitleStyle.Render("Journey") + "\n\n")
		right.WriteString(lipgloss.NewStyle().Bold(true).Render(m.journey.Title) + "\n\n")
		paid := TextStatusColorize("not paid", 2)
		if m.journey.Paid {
			paid = TextStatusColorize("paid", 1)
		}
		right.WriteString(fmt.Sprintf("Stops: %d\nPayment: %s\n", len(m.stops), paid))
		if link, err := journeys.ShareURL(m.shareBase, *m.journey); err == nil {
			right.WriteString("\nShare link:\n" + linkStyle.Render(link) + "\n")
		}

	default:
		right.WriteString("Select a journey to view details.")
	}

	if m.err != nil {
		right.WriteString("\n\n" + textRedStyle.Render(journeys.LoadErrorMessage(m.err)))
	}

	panelHeight := m.height - 3
	leftPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).Width(leftWidth).Height(panelHeight).
		Render(left.String())
	middlePanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).Width(middleWidth).Height(panelHeight).
		Render(middle.String())
	rightPanel := lipgloss.NewStyle().Padding(0, 2).
		Width(rightWidth).Height(panelHeight).
		Render(right.String())

	columns := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, middlePanel, rightPanel)

	footerText := "\n↑/↓ navigate • ←/→ columns • n new journey • a add stop • r preview • d forget • q quit"
	footerBar := footerStyle.Width(m.width).Render(footerText)

	return titleBar + "\n\n" + columns + footerBar
}

// RunStudio starts the journey studio. It returns the id of the journey the
// user asked to preview, or "" when they just quit.
func RunStudio(client *journeys.Client, db *sql.DB, shareBase string) (string, error) {
	p := tea.NewProgram(initStudioModel(client, db, shareBase), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	if m, ok := final.(studioModel); ok {
		return m.previewID, nil
	}
	return "", nil
}
