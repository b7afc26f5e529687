// Package suggest turns plain Japanese text into an annotated article by
// proposing vocabulary tags for content words written with kanji.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/japaniel/studybook/pkg/dictionary"
	"github.com/japaniel/studybook/pkg/markup"
)

// Stats summarizes one Annotate call.
type Stats struct {
	Sentences int
	Tagged    int
	// NoReading counts candidates left untagged because no reading was known.
	NoReading int
}

// Annotator proposes tags for plain text.
type Annotator struct {
	Analyzer *Analyzer
	Parser   *markup.Parser
	// Dict, when set, supplies glosses and fills in missing readings.
	Dict *dictionary.Index
	// MaxGlosses limits the glosses written into an annotation.
	MaxGlosses int
	Workers    int
	Logger     *slog.Logger
}

// NewAnnotator creates an Annotator with the default markup.
func NewAnnotator(dict *dictionary.Index) (*Annotator, error) {
	a, err := NewAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}
	return &Annotator{
		Analyzer:   a,
		Parser:     markup.Default(),
		Dict:       dict,
		MaxGlosses: 3,
		Workers:    4,
	}, nil
}

type sentenceResult struct {
	text      string
	tags      []markup.Tag
	noReading int
}

// Annotate splits text into sentences, tags every content word that
// contains kanji on its first appearance and returns the annotated article,
// one sentence per line. Tags already present in text are kept as they are.
func (an *Annotator) Annotate(ctx context.Context, text string) (string, Stats, error) {
	log := an.Logger
	if log == nil {
		log = slog.Default()
	}
	// output is laid out one sentence per line, so the line breaks of the
	// input are dropped
	sentences := an.Parser.Sentences(text)
	for i, s := range sentences {
		sentences[i] = strings.TrimSpace(s)
	}
	results := make([]sentenceResult, len(sentences))

	wp := NewWorkerPool(an.Workers, an.Workers*2)
	wp.Start(ctx)
	for i, s := range sentences {
		idx, sentence := i, s
		err := wp.SubmitCtx(ctx, func(ctx context.Context) error {
			results[idx] = an.annotateSentence(sentence)
			return nil
		})
		if err != nil {
			wp.Close()
			return "", Stats{}, err
		}
	}
	wp.Close()
	if err := ctx.Err(); err != nil {
		return "", Stats{}, err
	}

	// Sentences are analyzed independently, so repeated words are removed
	// here in document order.
	seen := make(map[string]bool)
	known := an.existingWords(sentences)
	stats := Stats{Sentences: len(sentences)}
	var out strings.Builder
	delim := an.Parser.Options().SentenceDelimiter
	for _, r := range results {
		stats.NoReading += r.noReading
		text := r.text
		for _, tag := range r.tags {
			placeholder := placeholderFor(tag)
			if seen[tag.Word] || known[tag.Word] {
				text = strings.Replace(text, placeholder, tag.Word, 1)
				continue
			}
			seen[tag.Word] = true
			stats.Tagged++
			text = strings.Replace(text, placeholder, an.Parser.Tag(tag), 1)
		}
		out.WriteString(text)
		out.WriteString(delim)
		out.WriteString("\n")
	}
	log.Debug("annotated text", "sentences", stats.Sentences, "tagged", stats.Tagged, "no_reading", stats.NoReading)
	return out.String(), stats, nil
}

// existingWords collects the words of tags the author already wrote.
func (an *Annotator) existingWords(sentences []string) map[string]bool {
	known := make(map[string]bool)
	for _, s := range sentences {
		for _, body := range an.Parser.TagBodies(s) {
			if f := an.Parser.Fields(body); len(f) > 0 {
				known[f[0]] = true
			}
		}
	}
	return known
}

// placeholderFor marks where a tag goes until duplicates are resolved. It
// uses private-use runes that never occur in real text.
func placeholderFor(t markup.Tag) string {
	return "\ue000" + t.Word + "\ue001"
}

func (an *Annotator) annotateSentence(sentence string) sentenceResult {
	var res sentenceResult
	var b strings.Builder
	for _, seg := range an.Parser.Segments(sentence) {
		if seg.IsTag {
			b.WriteString(seg.Text)
			continue
		}
		cursor := 0
		for _, tok := range an.Analyzer.Analyze(seg.Text) {
			i := strings.Index(seg.Text[cursor:], tok.Surface)
			if i < 0 {
				continue
			}
			b.WriteString(seg.Text[cursor : cursor+i])
			cursor += i + len(tok.Surface)

			if !isCandidate(tok) {
				b.WriteString(tok.Surface)
				continue
			}
			tag, ok := an.tagFor(tok)
			if !ok {
				res.noReading++
				b.WriteString(tok.Surface)
				continue
			}
			res.tags = append(res.tags, tag)
			b.WriteString(placeholderFor(tag))
		}
		b.WriteString(seg.Text[cursor:])
	}
	res.text = b.String()
	return res
}

func (an *Annotator) tagFor(tok Token) (markup.Tag, bool) {
	reading := dictionary.ToHiragana(tok.Reading)
	if reading == "" && an.Dict != nil && tok.Surface == tok.BaseForm {
		reading = an.Dict.Reading(tok.Surface, tok.BaseForm)
	}
	if reading == "" || reading == tok.Surface {
		return markup.Tag{}, false
	}
	tag := markup.Tag{Word: tok.Surface, Hiragana: reading}
	if an.Dict != nil {
		// an inflected surface has the reading of the inflection, not the entry
		gloss := ""
		if tok.Surface == tok.BaseForm {
			gloss = reading
		}
		tag.Annotation = an.Dict.Gloss(tok.Surface, tok.BaseForm, gloss, an.MaxGlosses)
		opts := an.Parser.Options()
		if strings.Contains(tag.Annotation, opts.TagClose) || strings.Contains(tag.Annotation, opts.SentenceDelimiter) {
			tag.Annotation = ""
		}
	}
	return tag, true
}

// isCandidate keeps nouns, verbs, adjectives and adverbs that contain kanji.
// Numbers, particles, auxiliaries and symbols are skipped.
func isCandidate(t Token) bool {
	switch t.PrimaryPOS {
	case "名詞", "動詞", "形容詞", "副詞", "形容動詞":
	default:
		return false
	}
	if len(t.PartsOfSpeech) > 1 && (t.PartsOfSpeech[1] == "数" || t.PartsOfSpeech[1] == "非自立") {
		return false
	}
	return hasKanji(t.Surface)
}

func hasKanji(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
