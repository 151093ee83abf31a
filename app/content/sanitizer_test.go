package content

import (
	"strings"
	"testing"
)

func TestSanitizerRemovesScriptWholesale(t *testing.T) {
	sanitizer := NewSanitizer()

	out := sanitizer.Run(`<p>Hello</p><script>alert("x")</script><style>p{color:red}</style>`)

	if strings.Contains(out, "script") || strings.Contains(out, "alert") {
		t.Errorf("Expected script content removed, got %q", out)
	}
	if strings.Contains(out, "style") || strings.Contains(out, "color") {
		t.Errorf("Expected style content removed, got %q", out)
	}
	if !strings.Contains(out, "<p>Hello</p>") {
		t.Errorf("Expected paragraph preserved, got %q", out)
	}
}

func TestSanitizerDropsEventAndDataAttributes(t *testing.T) {
	sanitizer := NewSanitizer()

	out := sanitizer.Run(`<p onclick="evil()" data-track="123">Text</p>`)

	if strings.Contains(out, "onclick") {
		t.Errorf("Expected onclick dropped, got %q", out)
	}
	if strings.Contains(out, "data-track") {
		t.Errorf("Expected data attribute dropped, got %q", out)
	}
	if !strings.Contains(out, "Text") {
		t.Errorf("Expected text preserved, got %q", out)
	}
}

func TestSanitizerDropsDisallowedAttributes(t *testing.T) {
	sanitizer := NewSanitizer()

	out := sanitizer.Run(`<a href="https://example.com" style="font-size:20px" class="cta">Go</a>`)

	if strings.Contains(out, "style=") {
		t.Errorf("Expected style attribute dropped, got %q", out)
	}
	if strings.Contains(out, "class=") {
		t.Errorf("Expected class attribute dropped, got %q", out)
	}
	if !strings.Contains(out, `href="https://example.com"`) {
		t.Errorf("Expected href preserved, got %q", out)
	}
}

func TestSanitizerUnwrapsUnknownTags(t *testing.T) {
	sanitizer := NewSanitizer()

	out := sanitizer.Run(`<center><font color="red"><p>Hello there</p></font></center>`)

	if strings.Contains(out, "center") || strings.Contains(out, "font") {
		t.Errorf("Expected unknown tags unwrapped, got %q", out)
	}
	if !strings.Contains(out, "<p>Hello there</p>") {
		t.Errorf("Expected nested allowed content preserved, got %q", out)
	}
}

func TestSanitizerKeepsTableStructure(t *testing.T) {
	sanitizer := NewSanitizer()

	out := sanitizer.Run(`<table><tr><td colspan="2" bgcolor="blue">Cell</td></tr></table>`)

	if !strings.Contains(out, "<table>") || !strings.Contains(out, `colspan="2"`) {
		t.Errorf("Expected table structure with colspan preserved, got %q", out)
	}
	if strings.Contains(out, "bgcolor") {
		t.Errorf("Expected bgcolor dropped, got %q", out)
	}
}

func TestSanitizerKeepsImageAttributes(t *testing.T) {
	sanitizer := NewSanitizer()

	out := sanitizer.Run(`<img src="https://cdn.example.com/a.png" alt="Logo" width="600" height="200" border="0">`)

	for _, want := range []string{`src="https://cdn.example.com/a.png"`, `alt="Logo"`, `width="600"`, `height="200"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in output, got %q", want, out)
		}
	}
	if strings.Contains(out, "border") {
		t.Errorf("Expected border dropped, got %q", out)
	}
}

func TestSanitizerCustomRules(t *testing.T) {
	sanitizer := NewSanitizerWithRules(map[string][]string{"p": nil}, []string{"div"})

	out := sanitizer.Run(`<div>gone</div><p>kept</p><span>unwrapped</span>`)

	if strings.Contains(out, "gone") {
		t.Errorf("Expected div content removed, got %q", out)
	}
	if !strings.Contains(out, "<p>kept</p>") {
		t.Errorf("Expected paragraph kept, got %q", out)
	}
	if strings.Contains(out, "<span>") || !strings.Contains(out, "unwrapped") {
		t.Errorf("Expected span unwrapped with text preserved, got %q", out)
	}
}
