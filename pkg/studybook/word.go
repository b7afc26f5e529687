package studybook

import "github.com/japaniel/studybook/pkg/identity"

// Word is the surface form of a vocabulary entry, e.g. "経済制裁".
type Word struct {
	Text string `json:"word"`
}

// NewWord wraps s.
func NewWord(s string) Word { return Word{Text: s} }

// ID returns the identifier of the word.
func (w Word) ID() string { return identity.Encode(w.Text) }

func (w Word) String() string { return w.Text }

// WordEntry is a word under study. Word is embedded so that its field is
// stored inline with the entry.
type WordEntry struct {
	Annotation *string `json:"annotation"`
	Hiragana   string  `json:"hiragana"`
	Level      uint    `json:"level"`
	SentenceID string  `json:"sentence_id"`
	Word
}

// AnnotationText returns the annotation or "" when there is none.
func (e WordEntry) AnnotationText() string {
	if e.Annotation == nil {
		return ""
	}
	return *e.Annotation
}

// WordEntryMap maps word ids to entries.
type WordEntryMap = map[string]WordEntry
