// Package markup parses articles annotated with inline vocabulary tags.
//
// An article is a run of sentences, each terminated by a sentence delimiter
// (default "。"). Sentence text is kept byte for byte, including any line
// breaks that follow the previous delimiter, because it determines the
// sentence's identity in a stored book. Inside a sentence a tag such as <<稼働・かどう・operation>>
// marks a vocabulary entry made of a word, its reading and an optional
// annotation.
package markup

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Default delimiters.
const (
	DefaultSentenceDelimiter = "。"
	DefaultTagOpen           = "<<"
	DefaultTagClose          = ">>"
	DefaultFieldDelimiter    = "・"

	// HighlightMarker is the only highlight Clean may write. Sentence ids
	// ignore it, so any other highlight would change them.
	HighlightMarker = "`"
)

// ErrMalformed is wrapped by every SyntaxError.
var ErrMalformed = errors.New("malformed markup")

// SyntaxError describes a tag that cannot be parsed.
type SyntaxError struct {
	Sentence int    // zero-based index of the raw sentence
	Fragment string // offending text
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sentence %d: %s: %q", e.Sentence+1, e.Reason, e.Fragment)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformed }

// Options configures the delimiters recognized by a Parser.
type Options struct {
	SentenceDelimiter string
	TagOpen           string
	TagClose          string
	FieldDelimiter    string
	// Highlight, when set, is written on both sides of every word that
	// Clean puts in place of a tag, e.g. "`" gives "…`工場`の…". It is
	// either empty or HighlightMarker.
	Highlight string
}

// DefaultOptions returns the standard delimiters with no highlight.
func DefaultOptions() Options {
	return Options{
		SentenceDelimiter: DefaultSentenceDelimiter,
		TagOpen:           DefaultTagOpen,
		TagClose:          DefaultTagClose,
		FieldDelimiter:    DefaultFieldDelimiter,
	}
}

// Tag is one parsed vocabulary entry.
type Tag struct {
	Word       string
	Hiragana   string
	Annotation string // empty when absent
}

// Sentence is a raw sentence together with its cleaned text and tags.
type Sentence struct {
	Raw  string
	Text string
	Tags []Tag
}

// Parser splits articles into sentences and tags. It is safe for
// concurrent use once created.
type Parser struct {
	opts Options
	tag  *regexp.Regexp
}

// New creates a Parser. Empty option fields fall back to the defaults.
func New(opts Options) (*Parser, error) {
	def := DefaultOptions()
	if opts.SentenceDelimiter == "" {
		opts.SentenceDelimiter = def.SentenceDelimiter
	}
	if opts.TagOpen == "" {
		opts.TagOpen = def.TagOpen
	}
	if opts.TagClose == "" {
		opts.TagClose = def.TagClose
	}
	if opts.FieldDelimiter == "" {
		opts.FieldDelimiter = def.FieldDelimiter
	}
	if opts.Highlight != "" && opts.Highlight != HighlightMarker {
		return nil, fmt.Errorf("highlight must be empty or %q, got %q", HighlightMarker, opts.Highlight)
	}
	if opts.TagOpen == opts.TagClose {
		return nil, fmt.Errorf("tag open and close must differ, both are %q", opts.TagOpen)
	}
	for _, d := range []string{opts.TagOpen, opts.TagClose, opts.FieldDelimiter} {
		if strings.Contains(d, opts.SentenceDelimiter) || strings.Contains(opts.SentenceDelimiter, d) {
			return nil, fmt.Errorf("delimiter %q overlaps sentence delimiter %q", d, opts.SentenceDelimiter)
		}
	}

	// Non-greedy so that each tag ends at its first closer.
	re, err := regexp.Compile(`(?s)` + regexp.QuoteMeta(opts.TagOpen) + `(.*?)` + regexp.QuoteMeta(opts.TagClose))
	if err != nil {
		return nil, err
	}
	return &Parser{opts: opts, tag: re}, nil
}

// Default returns a Parser using DefaultOptions.
func Default() *Parser {
	p, err := New(DefaultOptions())
	if err != nil {
		panic(err)
	}
	return p
}

// Options returns the effective options of p.
func (p *Parser) Options() Options { return p.opts }

// Sentences splits article on the sentence delimiter and keeps the pieces
// in order. Pieces that are empty or only white space are dropped; the
// others are returned unchanged.
func (p *Parser) Sentences(article string) []string {
	var out []string
	for _, s := range strings.Split(article, p.opts.SentenceDelimiter) {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Clean replaces every tag in sentence with its bare word and appends one
// sentence delimiter.
func (p *Parser) Clean(sentence string) string {
	h := p.opts.Highlight
	cleaned := p.tag.ReplaceAllStringFunc(sentence, func(m string) string {
		body := p.tag.FindStringSubmatch(m)[1]
		var word string
		if f := p.Fields(body); len(f) > 0 {
			word = f[0]
		}
		return h + word + h
	})
	return cleaned + p.opts.SentenceDelimiter
}

// TagBodies returns the interiors of the tags in sentence in order of
// appearance.
func (p *Parser) TagBodies(sentence string) []string {
	matches := p.tag.FindAllStringSubmatch(sentence, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Fields splits a tag body into word, reading and annotation. Only the
// first two field delimiters are structural; the annotation keeps any
// later ones. Empty fields are dropped.
func (p *Parser) Fields(body string) []string {
	var out []string
	for _, f := range strings.SplitN(body, p.opts.FieldDelimiter, 3) {
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Segment is a piece of a sentence: either a whole tag including its
// brackets or the plain text between tags.
type Segment struct {
	Text  string
	IsTag bool
}

// Segments splits sentence into plain text and tags, in order.
func (p *Parser) Segments(sentence string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range p.tag.FindAllStringIndex(sentence, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: sentence[last:loc[0]]})
		}
		out = append(out, Segment{Text: sentence[loc[0]:loc[1]], IsTag: true})
		last = loc[1]
	}
	if last < len(sentence) {
		out = append(out, Segment{Text: sentence[last:]})
	}
	return out
}

// Tag formats a tag in p's syntax. An empty annotation is left out.
func (p *Parser) Tag(t Tag) string {
	var b strings.Builder
	b.WriteString(p.opts.TagOpen)
	b.WriteString(t.Word)
	b.WriteString(p.opts.FieldDelimiter)
	b.WriteString(t.Hiragana)
	if t.Annotation != "" {
		b.WriteString(p.opts.FieldDelimiter)
		b.WriteString(t.Annotation)
	}
	b.WriteString(p.opts.TagClose)
	return b.String()
}

// ParseSentence parses one raw sentence. index is only used in errors.
func (p *Parser) ParseSentence(index int, raw string) (Sentence, error) {
	rest := p.tag.ReplaceAllString(raw, "")
	if i := strings.Index(rest, p.opts.TagOpen); i >= 0 {
		return Sentence{}, &SyntaxError{Sentence: index, Fragment: rest[i:], Reason: "unclosed tag"}
	}
	if i := strings.Index(rest, p.opts.TagClose); i >= 0 {
		return Sentence{}, &SyntaxError{Sentence: index, Fragment: rest[:i+len(p.opts.TagClose)], Reason: "tag closed without opening"}
	}

	s := Sentence{Raw: raw, Text: p.Clean(raw)}
	for _, body := range p.TagBodies(raw) {
		if strings.Contains(body, p.opts.TagOpen) {
			return Sentence{}, &SyntaxError{Sentence: index, Fragment: body, Reason: "nested tag"}
		}
		f := p.Fields(body)
		if len(f) < 2 {
			return Sentence{}, &SyntaxError{Sentence: index, Fragment: body, Reason: "tag needs a word and a reading"}
		}
		t := Tag{Word: f[0], Hiragana: f[1]}
		if len(f) > 2 {
			t.Annotation = f[2]
		}
		s.Tags = append(s.Tags, t)
	}
	return s, nil
}

// Parse splits article into sentences and parses their tags. Any malformed
// tag fails the whole article.
func (p *Parser) Parse(article string) ([]Sentence, error) {
	raws := p.Sentences(article)
	out := make([]Sentence, 0, len(raws))
	for i, raw := range raws {
		s, err := p.ParseSentence(i, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
