package token

import (
	"testing"

	"github.com/renshaw/smartlinks/internal/models"
)

func TestScan_PlainReference(t *testing.T) {
	toks := Scan("see [[ Mad Max ]] tonight")
	if len(toks) != 1 {
		t.Fatalf("len(toks) = %d, want 1", len(toks))
	}
	tok := toks[0]
	if tok.Kind != models.TokenReference {
		t.Errorf("kind = %v, want TokenReference", tok.Kind)
	}
	if tok.Prefix != "" {
		t.Errorf("prefix = %q, want empty", tok.Prefix)
	}
	if tok.Name != "Mad Max" {
		t.Errorf("name = %q, want %q", tok.Name, "Mad Max")
	}
	if tok.Raw != "[[ Mad Max ]]" {
		t.Errorf("raw = %q", tok.Raw)
	}
	if tok.Start != 4 || tok.End != 17 {
		t.Errorf("span = [%d,%d), want [4,17)", tok.Start, tok.End)
	}
}

func TestScan_PrefixAndVerbose(t *testing.T) {
	toks := Scan("[[ event->Mad Max | Fan convention ]]")
	if len(toks) != 1 {
		t.Fatalf("len(toks) = %d, want 1", len(toks))
	}
	tok := toks[0]
	if tok.Prefix != "event" {
		t.Errorf("prefix = %q, want %q", tok.Prefix, "event")
	}
	if tok.Name != "Mad Max" {
		t.Errorf("name = %q, want %q", tok.Name, "Mad Max")
	}
	if tok.Verbose != "Fan convention" {
		t.Errorf("verbose = %q, want %q", tok.Verbose, "Fan convention")
	}
	if got := tok.DisplayText(); got != "Fan convention" {
		t.Errorf("DisplayText() = %q, want %q", got, "Fan convention")
	}
}

func TestScan_ArrowInsideName(t *testing.T) {
	// A multi-word head is not a prefix; the arrow belongs to the name.
	toks := Scan("[[ a b->c ]]")
	if len(toks) != 1 {
		t.Fatalf("len(toks) = %d, want 1", len(toks))
	}
	if toks[0].Prefix != "" {
		t.Errorf("prefix = %q, want empty", toks[0].Prefix)
	}
	if toks[0].Name != "a b->c" {
		t.Errorf("name = %q, want %q", toks[0].Name, "a b->c")
	}
}

func TestScan_AttributeToken(t *testing.T) {
	toks := Scan("{{ Mad Max | image | size=300 | align=left | crop }}")
	if len(toks) != 1 {
		t.Fatalf("len(toks) = %d, want 1", len(toks))
	}
	tok := toks[0]
	if tok.Kind != models.TokenAttribute {
		t.Errorf("kind = %v, want TokenAttribute", tok.Kind)
	}
	if tok.Attr != "image" {
		t.Errorf("attr = %q, want %q", tok.Attr, "image")
	}
	want := []models.Option{
		{Key: "size", Value: "300"},
		{Key: "align", Value: "left"},
		{Value: "crop"},
	}
	if len(tok.Options) != len(want) {
		t.Fatalf("options = %v, want %v", tok.Options, want)
	}
	for i, o := range want {
		if tok.Options[i] != o {
			t.Errorf("options[%d] = %v, want %v", i, tok.Options[i], o)
		}
	}
}

func TestScan_AttributeWithPrefix(t *testing.T) {
	toks := Scan("{{ movie->Mad Max | video }}")
	if len(toks) != 1 {
		t.Fatalf("len(toks) = %d, want 1", len(toks))
	}
	if toks[0].Prefix != "movie" || toks[0].Attr != "video" {
		t.Errorf("got prefix=%q attr=%q", toks[0].Prefix, toks[0].Attr)
	}
}

func TestScan_Malformed(t *testing.T) {
	cases := []string{
		"[[ ]]",                     // empty name
		"[[ | verbose only ]]",      // empty name with verbose
		"{{ Mad Max }}",             // attribute token without attr segment
		"{{ Mad Max | not word! }}", // non-word attr
		"{{ Mad Max | image | }}",   // trailing empty segment
		"{{ | image }}",             // empty name
		"{{ Mad ]Max | image }}",    // bracket in name
		"[[ unterminated",           // no closing delimiter
		"plain text, no tokens",
	}
	for _, in := range cases {
		if toks := Scan(in); len(toks) != 0 {
			t.Errorf("Scan(%q) = %v, want no tokens", in, toks)
		}
	}
}

func TestScan_EscapedTokenIsLiteral(t *testing.T) {
	toks := Scan(`keep \[[ Mad Max ]] literal but match [[ Blade Runner ]]`)
	if len(toks) != 1 {
		t.Fatalf("len(toks) = %d, want 1", len(toks))
	}
	if toks[0].Name != "Blade Runner" {
		t.Errorf("name = %q, want %q", toks[0].Name, "Blade Runner")
	}
}

func TestScan_MultipleTokensOrdered(t *testing.T) {
	toks := Scan("[[ A ]] then {{ B | image }} then [[ C ]]")
	if len(toks) != 3 {
		t.Fatalf("len(toks) = %d, want 3", len(toks))
	}
	for i := 1; i < len(toks); i++ {
		if toks[i].Start < toks[i-1].End {
			t.Errorf("token %d overlaps token %d", i, i-1)
		}
	}
	if toks[0].Name != "A" || toks[1].Name != "B" || toks[2].Name != "C" {
		t.Errorf("names = %q %q %q", toks[0].Name, toks[1].Name, toks[2].Name)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Mad Max: 1984", "madmax1984"},
		{"mad  max 1984", "madmax1984"},
		{"Mad-Max 1984", "madmax1984"},
		{"  ", ""},
		{"!!!", ""},
		{"Ünïcode Näme", "ünïcodenäme"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_CapsLongKeys(t *testing.T) {
	long := ""
	for i := 0; i < 400; i++ {
		long += "a"
	}
	if got := Normalize(long); len(got) != 300 {
		t.Errorf("len = %d, want 300", len(got))
	}
}
