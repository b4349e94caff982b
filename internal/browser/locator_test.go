package browser

import "testing"

func TestLocatorXPath(t *testing.T) {
	cases := []struct {
		name string
		loc  Locator
		want string
	}{
		{"category", Category, "//h3[following-sibling::*[2][self::h1]]"},
		{"title", Title, "//h1[preceding-sibling::*[2][self::h3]]"},
		{"subtitle", Subtitle, "//h2[preceding-sibling::*[3][self::h3]]"},
		{"details", Details, "//ul[@id='details']//dd"},
		{"login prompt", LoginPrompt, "//button[contains(text(), 'Se connecter')]"},
		{"login submit", LoginSubmit, "//button[text()='Connexion']"},
		{"low bitrate", LowBitrateAudio, "//a[contains(text(), 'Audio bas débit')]"},
		{"any tag", Locator{}, "//*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.loc.XPath(); got != tc.want {
				t.Fatalf("XPath() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestXPathLiteralQuoting(t *testing.T) {
	cases := map[string]string{
		"plain":    "'plain'",
		"l'écoute": `"l'écoute"`,
		`a'b"c`:    `concat('a', "'", 'b"c')`,
		"'edge":    `"'edge"`,
		`'both"`:   `concat("'", 'both"')`,
	}
	for in, want := range cases {
		if got := xpathLiteral(in); got != want {
			t.Fatalf("xpathLiteral(%q) = %s, want %s", in, got, want)
		}
	}
}
