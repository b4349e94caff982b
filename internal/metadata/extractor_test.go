package metadata_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sndx/internal/browser"
	"sndx/internal/metadata"
	"sndx/internal/services"
)

const noticeURL = "https://portal.test/notice/42"

func staticPage(t *testing.T, body string) *browser.StaticPage {
	t.Helper()
	page := browser.NewStaticPage()
	if err := page.AddHTML(noticeURL, body); err != nil {
		t.Fatalf("AddHTML: %v", err)
	}
	if err := page.Navigate(context.Background(), noticeURL); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	return page
}

func TestExtractFixture(t *testing.T) {
	page := browser.NewStaticPage()
	if err := page.LoadFile(noticeURL, filepath.Join("testdata", "recording.html")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := page.Navigate(context.Background(), noticeURL); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	md, err := metadata.NewExtractor(nil).Extract(context.Background(), page)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := metadata.RecordingMetadata{
		URL:      noticeURL,
		Category: "Conférences",
		Title:    "Les ondes et la matière",
		Subtitle: "Séance inaugurale",
		Code:     "CRC-0042",
		Date:     "12/03/1998",
		Place:    "Paris",
		Authors:  []string{"Marie Dupont"},
		Duration: 3723 * time.Second,
	}
	if md.URL != want.URL || md.Category != want.Category || md.Title != want.Title ||
		md.Subtitle != want.Subtitle || md.Code != want.Code || md.Date != want.Date ||
		md.Place != want.Place || md.Duration != want.Duration {
		t.Fatalf("unexpected metadata:\n got %+v\nwant %+v", md, want)
	}
	if len(md.Authors) != 1 || md.Authors[0] != "Marie Dupont" {
		t.Fatalf("unexpected authors %q", md.Authors)
	}
}

func TestExtractNormalizesToNFC(t *testing.T) {
	// "é" written as e + combining acute accent.
	decomposed := "Se\u0301ance"
	body := `<html><body><h3>Cat</h3><p></p><h1>` + decomposed + `</h1><h2>Sub</h2>
<ul id="details"><li><dl><dd>C</dd><dd>D</dd><dd>P</dd><dd>A</dd><dd>5:30</dd></dl></li></ul></body></html>`
	md, err := metadata.NewExtractor(nil).Extract(context.Background(), staticPage(t, body))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if md.Title != "Séance" {
		t.Fatalf("title not NFC: %q", md.Title)
	}
	if md.Duration != 330*time.Second {
		t.Fatalf("unexpected duration %s", md.Duration)
	}
}

func TestExtractFailures(t *testing.T) {
	full := `<h3>Cat</h3><p></p><h1>T</h1><h2>S</h2>`
	details := func(n int, last string) string {
		var b strings.Builder
		b.WriteString(`<ul id="details"><li><dl>`)
		for i := 0; i < n; i++ {
			if i == n-1 && last != "" {
				b.WriteString("<dd>" + last + "</dd>")
				continue
			}
			b.WriteString("<dd>x</dd>")
		}
		b.WriteString(`</dl></li></ul>`)
		return b.String()
	}
	cases := []struct {
		name string
		body string
		want error
	}{
		{"no category", `<h1>T</h1><h2>S</h2>` + details(5, "1:00"), services.ErrExtraction},
		{"no subtitle", `<h3>Cat</h3><p></p><h1>T</h1>` + details(5, "1:00"), services.ErrExtraction},
		{"too few details", full + details(4, ""), services.ErrExtraction},
		{"no details", full, services.ErrExtraction},
		{"bad duration", full + details(5, "une heure"), services.ErrFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := staticPage(t, "<html><body>"+tc.body+"</body></html>")
			_, err := metadata.NewExtractor(nil).Extract(context.Background(), page)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
