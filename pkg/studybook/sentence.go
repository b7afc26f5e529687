package studybook

import (
	"github.com/japaniel/studybook/pkg/identity"
	"github.com/japaniel/studybook/pkg/markup"
)

// DisplayMarker is the quoting character a cleaned sentence may carry
// around tagged words. It never takes part in a sentence's identity.
const DisplayMarker = markup.HighlightMarker

// Sentence is a cleaned sentence: tags replaced by their words and one
// sentence delimiter at the end.
type Sentence struct {
	Text string `json:"sentence"`
}

// NewSentence wraps s.
func NewSentence(s string) Sentence { return Sentence{Text: s} }

// ID returns the identifier of the sentence with display markers removed,
// so highlighting never changes it.
func (s Sentence) ID() string {
	return identity.Encode(identity.Strip(s.Text, DisplayMarker))
}

func (s Sentence) String() string { return s.Text }

// SentenceEntry is a sentence under study.
//
// BacklogVolume counts the ids in WordEntryIDs whose entries are still in
// the word backlog. The JSON name keeps its historical spelling.
type SentenceEntry struct {
	BacklogVolume uint `json:"backlog_volumn"`
	Sentence
	WordEntryIDs []string `json:"wordentry_ids"`
}

// SentenceEntryMap maps sentence ids to entries.
type SentenceEntryMap = map[string]SentenceEntry
