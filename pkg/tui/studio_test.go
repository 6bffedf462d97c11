package tui

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/giftjourney/pkg/db"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/journeys/journeystest"
	"github.com/unowned-ai/giftjourney/pkg/store"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	testDB, err := db.OpenDBConnection(":memory:", false, "NORMAL")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	testDB.SetMaxOpenConns(1)
	if err := db.InitializeSchema(testDB, db.TargetSchemaVersion); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return testDB
}

// drive feeds msg to the model and then runs the returned command chain
// synchronously, as long as each command yields a single message.
func drive(t *testing.T, m studioModel, msg tea.Msg) studioModel {
	t.Helper()
	for i := 0; msg != nil && i < 10; i++ {
		updated, cmd := m.Update(msg)
		m = updated.(studioModel)
		if cmd == nil {
			return m
		}
		msg = cmd()
		if _, batch := msg.(tea.BatchMsg); batch {
			return m
		}
		if _, seq := msg.(tea.QuitMsg); seq {
			return m
		}
	}
	return m
}

func typeText(t *testing.T, m studioModel, text string) studioModel {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(studioModel)
}

func setupStudio(t *testing.T) (studioModel, *journeystest.Server, *sql.DB) {
	t.Helper()
	return setupStudioWith(t, sampleJourney())
}

func setupStudioWith(t *testing.T, j journeys.Journey) (studioModel, *journeystest.Server, *sql.DB) {
	t.Helper()
	srv := journeystest.NewServer()
	t.Cleanup(srv.Close)
	testDB := setupTestDB(t)

	srv.AddJourney(j)
	if _, err := store.SaveJourney(context.Background(), testDB, j, srv.URL); err != nil {
		t.Fatalf("SaveJourney failed: %v", err)
	}

	m := initStudioModel(journeys.NewClient(srv.URL), testDB, "https://gifts.example.com")
	m.width, m.height = 120, 40
	m = drive(t, m, listSavedJourneys(testDB)())
	return m, srv, testDB
}

func TestStudio_LoadsSavedJourneyWithSortedStops(t *testing.T) {
	m, _, _ := setupStudio(t)

	if len(m.saved) != 1 || m.journey == nil {
		t.Fatalf("Expected the saved journey to be loaded, got %d saved, journey %v", len(m.saved), m.journey)
	}
	if m.stops[0].Title != "Picnic" || m.stops[1].Title != "Dinner" {
		t.Errorf("Expected stops in display order, got %v", m.stops)
	}
	if !strings.Contains(m.View(), "1. Picnic") {
		t.Errorf("Expected numbered stops in the view:\n%s", m.View())
	}
}

func TestStudio_CreateJourney(t *testing.T) {
	m, srv, testDB := setupStudio(t)

	m = drive(t, m, keyMsg("n"))
	if !m.journeyCreating {
		t.Fatalf("Expected the new journey form")
	}

	m = drive(t, m, keyMsg("enter"))
	if m.journeyCreatingError == "" {
		t.Errorf("An empty title must be rejected")
	}

	m = typeText(t, m, "Graduation")
	m = drive(t, m, keyMsg("enter"))

	if m.journeyCreating {
		t.Errorf("Form should close after submit")
	}
	if srv.Calls(journeystest.RouteCreateJourney) != 1 {
		t.Errorf("Expected one create request, got %d", srv.Calls(journeystest.RouteCreateJourney))
	}
	list, err := store.ListJourneys(context.Background(), testDB)
	if err != nil {
		t.Fatalf("ListJourneys failed: %v", err)
	}
	if len(list) != 2 || len(m.saved) != 2 {
		t.Errorf("Expected the new journey in the registry and the list, got %d / %d", len(list), len(m.saved))
	}
}

func TestStudio_AddStopTogglesMedia(t *testing.T) {
	m, srv, _ := setupStudio(t)

	m = drive(t, m, keyMsg("a"))
	if !m.stopAdding {
		t.Fatalf("Expected the add stop form")
	}

	m = typeText(t, m, "Museum")
	m = drive(t, m, keyMsg("enter"))
	m = drive(t, m, keyMsg("enter")) // skip note
	if m.stopStep != stopStepMedia {
		t.Fatalf("Expected media step, got %d", m.stopStep)
	}

	m = typeText(t, m, "https://img.example.com/m.jpg")
	m = drive(t, m, keyMsg("tab"))
	if m.stopMediaKind != journeys.MediaIcon || m.stopInputs[stopStepMedia].Value() != "" {
		t.Errorf("Tab must switch to icon and clear the image url, got %v %q", m.stopMediaKind, m.stopInputs[stopStepMedia].Value())
	}

	m = drive(t, m, keyMsg("enter"))
	m = drive(t, m, keyMsg("enter"))
	if m.stopAddingError == "" || !m.stopAdding {
		t.Errorf("A stop without media must be rejected")
	}
	if srv.Calls(journeystest.RouteAddStop) != 0 {
		t.Errorf("Invalid stops must not reach the API")
	}

	m.stopStep = stopStepMedia
	m.stopInputs[stopStepMedia].Focus()
	m = typeText(t, m, "star")
	m = drive(t, m, keyMsg("enter"))
	m = drive(t, m, keyMsg("enter"))

	if m.stopAdding {
		t.Fatalf("Form should close after a valid submit: %s", m.stopAddingError)
	}
	if len(m.stops) != 3 {
		t.Fatalf("Expected the new stop in the list, got %d", len(m.stops))
	}
	j, _ := srv.Journey("j1")
	added := j.Stops[len(j.Stops)-1]
	if added.IconName != "star" || added.ImageURL != "" {
		t.Errorf("Expected an icon-only stop, got %+v", added)
	}
}

func TestStudio_ForgetAndPreview(t *testing.T) {
	m, _, testDB := setupStudio(t)

	m = drive(t, m, keyMsg("r"))
	if m.previewID != "j1" || !m.quitting {
		t.Errorf("Expected preview of j1, got %q", m.previewID)
	}

	m, _, testDB = setupStudio(t)
	m = drive(t, m, keyMsg("d"))
	m = drive(t, m, keyMsg("up"))
	m = drive(t, m, keyMsg("enter"))

	if len(m.saved) != 0 {
		t.Errorf("Expected the journey to be forgotten, %d left", len(m.saved))
	}
	if _, err := store.GetJourney(context.Background(), testDB, "j1"); err == nil {
		t.Errorf("Expected the registry record to be removed")
	}
}

func TestStudio_PaidJourneyShowsShareLink(t *testing.T) {
	j := sampleJourney()
	j.Paid = true
	j.ShareableToken = "tok-j1"
	m, srv, _ := setupStudioWith(t, j)

	if m.journey == nil || !m.journey.Paid {
		t.Fatalf("Expected the paid journey to be loaded, got %v", m.journey)
	}
	if !strings.Contains(m.View(), "https://gifts.example.com/reveal/tok-j1") {
		t.Errorf("Expected the share link in the journey pane:\n%s", m.View())
	}

	m = drive(t, m, keyMsg("a"))
	if m.stopAdding {
		t.Errorf("A paid journey must not open the add stop form")
	}
	if srv.Calls(journeystest.RouteAddStop) != 0 {
		t.Errorf("No stop may be added to a paid journey")
	}
}

func TestStudio_UnpaidJourneyHasNoShareLink(t *testing.T) {
	m, _, _ := setupStudio(t)

	if strings.Contains(m.View(), "Share link") {
		t.Errorf("An unpaid journey must not show a share link:\n%s", m.View())
	}
}

func TestStudio_RegistryLabel(t *testing.T) {
	m, _, testDB := setupStudio(t)

	name, file := getDbPragmaList(testDB)
	if name != "main" || file != "" {
		t.Errorf("Expected the main in-memory database, got %q %q", name, file)
	}
	if m.dbFilename != "in memory" {
		t.Errorf("Unexpected registry label %q", m.dbFilename)
	}
}
