package browser_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"sndx/internal/browser"
)

const recordingURL = "https://portal.test/notice/42"

func loadRecording(t *testing.T) *browser.StaticPage {
	t.Helper()
	page := browser.NewStaticPage()
	if err := page.LoadFile(recordingURL, filepath.Join("testdata", "recording.html")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := page.Navigate(context.Background(), recordingURL); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	return page
}

func TestStaticPageStructuralLocators(t *testing.T) {
	ctx := context.Background()
	page := loadRecording(t)

	want := map[string]browser.Locator{
		"Conférences":             browser.Category,
		"Les ondes et la matière": browser.Title,
		"Séance inaugurale":       browser.Subtitle,
	}
	for text, loc := range want {
		got, found, err := browser.FirstText(ctx, page, loc)
		if err != nil {
			t.Fatalf("FirstText(%s): %v", loc, err)
		}
		if !found || got != text {
			t.Fatalf("FirstText(%s) = %q (found=%v), want %q", loc, got, found, text)
		}
	}

	details, err := page.QueryAll(ctx, browser.Details)
	if err != nil {
		t.Fatalf("QueryAll details: %v", err)
	}
	if len(details) != 5 {
		t.Fatalf("expected 5 detail entries, got %d", len(details))
	}
	if details[0].Tag() != "dd" {
		t.Fatalf("unexpected tag %q", details[0].Tag())
	}
	last, err := page.TextContent(ctx, details[4])
	if err != nil {
		t.Fatalf("TextContent: %v", err)
	}
	if last != "1:02:03" {
		t.Fatalf("unexpected duration text %q", last)
	}
}

func TestStaticPageFirstTextMissing(t *testing.T) {
	page := loadRecording(t)
	text, found, err := browser.FirstText(context.Background(), page, browser.Locator{Tag: "h4"})
	if err != nil {
		t.Fatalf("FirstText: %v", err)
	}
	if found || text != "" {
		t.Fatalf("expected no match, got %q", text)
	}
}

func TestStaticPageTextMatching(t *testing.T) {
	ctx := context.Background()
	page := browser.NewStaticPage()
	if err := page.LoadFile("login", filepath.Join("testdata", "login.html")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := page.Navigate(ctx, "login"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	exact, err := page.QueryAll(ctx, browser.LoginSubmit)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(exact) != 1 {
		t.Fatalf("exact text match should ignore longer labels, got %d", len(exact))
	}
	contains, err := page.QueryAll(ctx, browser.Locator{Tag: "button", Text: &browser.TextMatch{Value: "Connexion"}})
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(contains) != 2 {
		t.Fatalf("contains match should find both buttons, got %d", len(contains))
	}
}

func TestStaticPageTypeAndClick(t *testing.T) {
	ctx := context.Background()
	page := browser.NewStaticPage()
	if err := page.LoadFile("login", filepath.Join("testdata", "login.html")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := page.Navigate(ctx, "login"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if err := page.Type(ctx, browser.EmailField, "user@example.com"); err != nil {
		t.Fatalf("Type email: %v", err)
	}
	if got, ok := page.Typed(browser.EmailField); !ok || got != "user@example.com" {
		t.Fatalf("unexpected typed value %q", got)
	}
	if err := page.Type(ctx, "input[name='missing']", "x"); err == nil {
		t.Fatal("expected error typing into a missing field")
	}
	if err := page.Type(ctx, "#email", "x"); err == nil {
		t.Fatal("expected error for unsupported selector")
	}

	var clicked []string
	page.OnClick(func(text string) { clicked = append(clicked, text) })
	buttons, err := page.QueryAll(ctx, browser.LoginSubmit)
	if err != nil || len(buttons) != 1 {
		t.Fatalf("QueryAll: %v (%d)", err, len(buttons))
	}
	if err := page.Click(ctx, buttons[0]); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if len(clicked) != 1 || clicked[0] != "Connexion" {
		t.Fatalf("unexpected click callback %v", clicked)
	}
	if got := page.Clicks(); len(got) != 1 || got[0] != "Connexion" {
		t.Fatalf("unexpected recorded clicks %v", got)
	}
}

func TestStaticPageReplacingCurrentDocument(t *testing.T) {
	ctx := context.Background()
	page := browser.NewStaticPage()
	if err := page.AddHTML("home", `<html><body><button>Se connecter</button></body></html>`); err != nil {
		t.Fatalf("AddHTML: %v", err)
	}
	if err := page.Navigate(ctx, "home"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if err := page.AddHTML("home", `<html><body><button>Mon compte</button></body></html>`); err != nil {
		t.Fatalf("AddHTML: %v", err)
	}
	found, err := page.QueryAll(ctx, browser.LoginPrompt)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(found) != 0 {
		t.Fatal("replacing the current document should take effect immediately")
	}
}

func TestStaticPageErrors(t *testing.T) {
	ctx := context.Background()
	page := loadRecording(t)
	other := loadRecording(t)

	if err := page.Navigate(ctx, "https://portal.test/unknown"); err == nil {
		t.Fatal("expected error for unknown document")
	}
	foreign, err := other.QueryAll(ctx, browser.Details)
	if err != nil || len(foreign) == 0 {
		t.Fatalf("QueryAll on other page: %v", err)
	}
	if _, err := page.TextContent(ctx, foreign[0]); err == nil {
		t.Fatal("expected error for element from another page")
	}

	if err := page.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := page.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if page.Closes() != 2 {
		t.Fatalf("expected 2 recorded closes, got %d", page.Closes())
	}
	if _, err := page.Location(ctx); !errors.Is(err, browser.ErrPageClosed) {
		t.Fatalf("expected ErrPageClosed, got %v", err)
	}
}
