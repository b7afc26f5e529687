// Package studybook tracks vocabulary taken from annotated articles.
//
// A Book holds words and sentences, each split into a backlog (still being
// studied) and an achieved set. Answering a word correctly levels it down;
// at level 0 it moves to the achieved set, and a sentence follows once all
// of its words have left the backlog.
package studybook

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/japaniel/studybook/pkg/markup"
)

// InitialLevel is the level of every freshly parsed word.
const InitialLevel = 1

// ErrNotFound is returned when a word id is not in the word backlog.
var ErrNotFound = errors.New("word not found in backlog")

// Collection splits entries into achieved and backlog maps keyed by id. A
// nil map means the collection was never populated and is stored as null.
type Collection[T any] struct {
	Achieved map[string]T `json:"achived"`
	Backlog  map[string]T `json:"backlog"`
}

// Book is the aggregate of words and sentences under study.
type Book struct {
	Words     Collection[WordEntry]     `json:"words"`
	Sentences Collection[SentenceEntry] `json:"sentences"`
}

// Status reports the size of each collection.
type Status struct {
	WordsBacklog      int `json:"words_backlog"`
	WordsAchieved     int `json:"words_achieved"`
	SentencesBacklog  int `json:"sentences_backlog"`
	SentencesAchieved int `json:"sentences_achieved"`
}

func (s Status) String() string {
	return fmt.Sprintf("words %d backlog / %d achieved, sentences %d backlog / %d achieved",
		s.WordsBacklog, s.WordsAchieved, s.SentencesBacklog, s.SentencesAchieved)
}

// FromArticle parses article with the default markup and builds a new book.
func FromArticle(article string) (*Book, error) {
	return FromArticleWith(markup.Default(), article)
}

// FromArticleWith parses article with p and builds a new book with every
// word at InitialLevel in the backlog.
//
// Every sentence gets an entry, including sentences without tags. A word
// tagged more than once keeps its first sentence; later sentences do not
// list it again. When no word is found both backlogs stay nil.
func FromArticleWith(p *markup.Parser, article string) (*Book, error) {
	sentences, err := p.Parse(article)
	if err != nil {
		return nil, err
	}

	words := make(WordEntryMap)
	sents := make(SentenceEntryMap)
	for _, s := range sentences {
		sentence := NewSentence(s.Text)
		sid := sentence.ID()

		var ids []string
		for _, tag := range s.Tags {
			w := NewWord(tag.Word)
			wid := w.ID()
			if _, seen := words[wid]; seen {
				continue
			}
			entry := WordEntry{
				Hiragana:   tag.Hiragana,
				Level:      InitialLevel,
				SentenceID: sid,
				Word:       w,
			}
			if tag.Annotation != "" {
				a := tag.Annotation
				entry.Annotation = &a
			}
			words[wid] = entry
			ids = append(ids, wid)
		}
		// the same sentence written twice is one entry
		if prev, ok := sents[sid]; ok {
			prev.WordEntryIDs = append(prev.WordEntryIDs, ids...)
			prev.BacklogVolume += uint(len(ids))
			sents[sid] = prev
			continue
		}
		if ids == nil {
			ids = []string{}
		}
		sents[sid] = SentenceEntry{
			BacklogVolume: uint(len(ids)),
			Sentence:      sentence,
			WordEntryIDs:  ids,
		}
	}

	b := &Book{}
	if len(words) > 0 {
		b.Words.Backlog = words
		b.Sentences.Backlog = sents
	}
	return b, nil
}

// HasNoBacklogWords reports whether there is nothing left to study.
func (b *Book) HasNoBacklogWords() bool {
	return len(b.Words.Backlog) == 0
}

// Status counts the four collections.
func (b *Book) Status() Status {
	return Status{
		WordsBacklog:      len(b.Words.Backlog),
		WordsAchieved:     len(b.Words.Achieved),
		SentencesBacklog:  len(b.Sentences.Backlog),
		SentencesAchieved: len(b.Sentences.Achieved),
	}
}

// Word looks up a word in either collection.
func (b *Book) Word(id string) (WordEntry, bool) {
	if e, ok := b.Words.Backlog[id]; ok {
		return e, true
	}
	e, ok := b.Words.Achieved[id]
	return e, ok
}

// Sentence looks up a sentence in either collection.
func (b *Book) Sentence(id string) (SentenceEntry, bool) {
	if e, ok := b.Sentences.Backlog[id]; ok {
		return e, true
	}
	e, ok := b.Sentences.Achieved[id]
	return e, ok
}

// LevelUp raises the level of a backlog word by one. There is no ceiling.
func (b *Book) LevelUp(id string) error {
	e, ok := b.Words.Backlog[id]
	if !ok {
		return fmt.Errorf("level up %q: %w", id, ErrNotFound)
	}
	e.Level++
	b.Words.Backlog[id] = e
	return nil
}

// LevelDown lowers the level of a backlog word by one. At level 0 the word
// moves to the achieved words and every backlog sentence listing it loses
// one from its backlog volume; a sentence whose volume reaches 0 moves to
// the achieved sentences. After a merge a word can be listed by sentences
// of more than one article.
func (b *Book) LevelDown(id string) error {
	e, ok := b.Words.Backlog[id]
	if !ok {
		return fmt.Errorf("level down %q: %w", id, ErrNotFound)
	}
	if e.Level > 0 {
		e.Level--
	}
	if e.Level > 0 {
		b.Words.Backlog[id] = e
		return nil
	}

	delete(b.Words.Backlog, id)
	if b.Words.Achieved == nil {
		b.Words.Achieved = make(WordEntryMap)
	}
	b.Words.Achieved[id] = e

	for sid, s := range b.Sentences.Backlog {
		if !slices.Contains(s.WordEntryIDs, id) {
			continue
		}
		if s.BacklogVolume > 0 {
			s.BacklogVolume--
		}
		if s.BacklogVolume > 0 {
			b.Sentences.Backlog[sid] = s
			continue
		}
		delete(b.Sentences.Backlog, sid)
		if b.Sentences.Achieved == nil {
			b.Sentences.Achieved = make(SentenceEntryMap)
		}
		b.Sentences.Achieved[sid] = s
	}
	return nil
}

// DrawDeck returns a shuffled copy of the word backlog, or nil when the
// backlog is empty.
func (b *Book) DrawDeck() []WordEntry {
	return b.DrawDeckRand(nil)
}

// DrawDeckRand is DrawDeck with an explicit source; nil uses the global one.
func (b *Book) DrawDeckRand(r *rand.Rand) []WordEntry {
	if len(b.Words.Backlog) == 0 {
		return nil
	}
	deck := make([]WordEntry, 0, len(b.Words.Backlog))
	for _, e := range b.Words.Backlog {
		deck = append(deck, e)
	}
	swap := func(i, j int) { deck[i], deck[j] = deck[j], deck[i] }
	if r != nil {
		r.Shuffle(len(deck), swap)
	} else {
		rand.Shuffle(len(deck), swap)
	}
	return deck
}

// Merge returns the union of a and b. On an id collision b's entry wins.
// Collections that end up empty are nil. a and b must not be used
// afterwards.
func Merge(a, b *Book) *Book {
	return &Book{
		Words: Collection[WordEntry]{
			Achieved: mergeMaps(a.Words.Achieved, b.Words.Achieved),
			Backlog:  mergeMaps(a.Words.Backlog, b.Words.Backlog),
		},
		Sentences: Collection[SentenceEntry]{
			Achieved: mergeMaps(a.Sentences.Achieved, b.Sentences.Achieved),
			Backlog:  mergeMaps(a.Sentences.Backlog, b.Sentences.Backlog),
		},
	}
}

// MergeReport describes a merge: the status of the added book and of the
// result.
type MergeReport struct {
	Added  Status
	Result Status
}

// MergeWithReport merges like Merge and reports the status of b and of the
// result.
func MergeWithReport(a, b *Book) (*Book, MergeReport) {
	added := b.Status()
	merged := Merge(a, b)
	return merged, MergeReport{Added: added, Result: merged.Status()}
}

func mergeMaps[T any](a, b map[string]T) map[string]T {
	out := make(map[string]T, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Validate checks that every word refers to a known sentence and that each
// sentence's backlog volume matches the word backlog.
func (b *Book) Validate() error {
	var errs []error
	check := func(where string, m WordEntryMap) {
		for id, e := range m {
			if id != e.ID() {
				errs = append(errs, fmt.Errorf("%s word %q stored under id %q", where, e.Text, id))
			}
			if _, ok := b.Sentence(e.SentenceID); !ok {
				errs = append(errs, fmt.Errorf("%s word %q refers to missing sentence %q", where, e.Text, e.SentenceID))
			}
		}
	}
	check("backlog", b.Words.Backlog)
	check("achieved", b.Words.Achieved)

	for id, s := range b.Sentences.Backlog {
		var n uint
		for _, wid := range s.WordEntryIDs {
			if _, ok := b.Words.Backlog[wid]; ok {
				n++
			}
		}
		if n != s.BacklogVolume {
			errs = append(errs, fmt.Errorf("sentence %q has backlog volume %d, want %d", id, s.BacklogVolume, n))
		}
	}
	for id, s := range b.Sentences.Achieved {
		if s.BacklogVolume != 0 {
			errs = append(errs, fmt.Errorf("achieved sentence %q has backlog volume %d", id, s.BacklogVolume))
		}
	}
	return errors.Join(errs...)
}
