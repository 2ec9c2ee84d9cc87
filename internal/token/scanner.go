// Package token scans free text for smartlink markup tokens.
//
// Two delimiter families are recognized, left-to-right and non-overlapping:
//
//	[[ prefix->Name | verbose text ]]        reference token
//	{{ prefix->Name | attr | k=v | ... }}    attribute token
//
// Whitespace around delimiters and pipes is insignificant. A token preceded
// by a backslash is left literal. Anything malformed (unterminated
// delimiters, empty name, non-word attribute) simply fails to match; the
// scanner never errors, so the substitution driver can never lose content.
package token

import (
	"regexp"
	"sort"
	"strings"

	"github.com/renshaw/smartlinks/internal/models"
)

var (
	refRe  = regexp.MustCompile(`\[\[([^\]]*)\]\]`)
	attrRe = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
	wordRe = regexp.MustCompile(`^\w+$`)
)

// Scan returns every well-formed token in text, ordered by span start.
// Spans index into text byte-wise; unmatched regions are untouched by the
// caller. Scan is pure and re-scannable on every call.
func Scan(text string) []models.Token {
	var out []models.Token

	for _, loc := range refRe.FindAllStringSubmatchIndex(text, -1) {
		if escaped(text, loc[0]) {
			continue
		}
		if tok, ok := parseReference(text[loc[2]:loc[3]]); ok {
			tok.Start, tok.End = loc[0], loc[1]
			tok.Raw = text[loc[0]:loc[1]]
			out = append(out, tok)
		}
	}

	for _, loc := range attrRe.FindAllStringSubmatchIndex(text, -1) {
		if escaped(text, loc[0]) {
			continue
		}
		if tok, ok := parseAttribute(text[loc[2]:loc[3]]); ok {
			tok.Start, tok.End = loc[0], loc[1]
			tok.Raw = text[loc[0]:loc[1]]
			out = append(out, tok)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	// The two grammars cannot produce overlapping matches within one family,
	// but an attribute interior may contain a bracket pair (or vice versa).
	// Earlier span wins; the loser stays literal.
	kept := out[:0]
	end := 0
	for _, t := range out {
		if t.Start < end {
			continue
		}
		kept = append(kept, t)
		end = t.End
	}
	return kept
}

// escaped reports whether the token opening at pos is preceded by a
// backslash, which suppresses the match.
func escaped(text string, pos int) bool {
	return pos > 0 && text[pos-1] == '\\'
}

// splitPrefix splits an optional leading "prefix->" from s. The prefix must
// be a single word; otherwise the arrow is part of the name.
func splitPrefix(s string) (prefix, rest string) {
	if i := strings.Index(s, "->"); i >= 0 {
		head := strings.TrimSpace(s[:i])
		if wordRe.MatchString(head) {
			return head, s[i+2:]
		}
	}
	return "", s
}

// parseReference parses the interior of a [[ … ]] token.
func parseReference(interior string) (models.Token, bool) {
	prefix, rest := splitPrefix(interior)

	name, verbose := rest, ""
	if i := strings.Index(rest, "|"); i >= 0 {
		name, verbose = rest[:i], rest[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Token{}, false
	}

	return models.Token{
		Kind:    models.TokenReference,
		Prefix:  prefix,
		Name:    name,
		Verbose: strings.TrimSpace(verbose),
	}, true
}

// parseAttribute parses the interior of a {{ … }} token. The first pipe
// segment after the name selects the render kind and must be a single word;
// later segments are key=value options or positional values.
func parseAttribute(interior string) (models.Token, bool) {
	segs := strings.Split(interior, "|")
	if len(segs) < 2 {
		return models.Token{}, false
	}

	prefix, rest := splitPrefix(segs[0])
	name := strings.TrimSpace(rest)
	// Names cannot contain ']', same as in the reference grammar.
	if name == "" || strings.Contains(name, "]") {
		return models.Token{}, false
	}

	attr := strings.TrimSpace(segs[1])
	if !wordRe.MatchString(attr) {
		return models.Token{}, false
	}

	var opts []models.Option
	for _, seg := range segs[2:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return models.Token{}, false
		}
		if k, v, found := strings.Cut(seg, "="); found {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if !wordRe.MatchString(k) {
				return models.Token{}, false
			}
			opts = append(opts, models.Option{Key: k, Value: v})
			continue
		}
		opts = append(opts, models.Option{Value: seg})
	}

	return models.Token{
		Kind:    models.TokenAttribute,
		Prefix:  prefix,
		Name:    name,
		Attr:    attr,
		Options: opts,
	}, true
}
