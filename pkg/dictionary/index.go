package dictionary

import (
	"sort"
	"strings"
)

// Index is an in-memory lookup table over dictionary entries, keyed by
// every kanji and kana form. It is read-only after creation and safe for
// concurrent use.
type Index struct {
	index map[string][]JMdictEntry
	size  int
}

// NewIndex builds an index of entries.
func NewIndex(entries []JMdictEntry) *Index {
	idx := make(map[string][]JMdictEntry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Index{index: idx, size: len(entries)}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return ix.size }

// Lookup finds matching entries for a word and its dictionary form, narrowed
// by reading when one is given. Results are ordered by entry id.
func (ix *Index) Lookup(word, lemma, reading string) []JMdictEntry {
	candidates := make(map[string]JMdictEntry) // dedupe by entry id
	for _, term := range []string{word, lemma} {
		if term == "" {
			continue
		}
		for _, e := range ix.index[term] {
			candidates[e.Id] = e
		}
	}

	var results []JMdictEntry
	for _, entry := range candidates {
		if isMatch(entry, word, lemma, reading) {
			results = append(results, entry)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Id < results[j].Id
	})
	return results
}

// Reading returns the preferred reading of the first match in hiragana: the
// first common kana form, else the first kana form.
func (ix *Index) Reading(word, lemma string) string {
	matches := ix.Lookup(word, lemma, "")
	if len(matches) == 0 || len(matches[0].Kana) == 0 {
		return ""
	}
	for _, k := range matches[0].Kana {
		if k.Common {
			return ToHiragana(k.Text)
		}
	}
	return ToHiragana(matches[0].Kana[0].Text)
}

// Gloss returns up to max English glosses of the first matching entry
// joined with ", ". max <= 0 means no limit.
func (ix *Index) Gloss(word, lemma, reading string, max int) string {
	matches := ix.Lookup(word, lemma, reading)
	if len(matches) == 0 {
		return ""
	}
	var glosses []string
	for _, s := range matches[0].Sense {
		for _, g := range s.Gloss {
			if g.Lang != "" && g.Lang != "eng" {
				continue
			}
			glosses = append(glosses, g.Text)
			if max > 0 && len(glosses) == max {
				return strings.Join(glosses, ", ")
			}
		}
	}
	return strings.Join(glosses, ", ")
}

func isMatch(entry JMdictEntry, word, lemma, reading string) bool {
	hasText := false
	for _, k := range entry.Kanji {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	// Words written in kana only match on their kana element.
	for _, k := range entry.Kana {
		if k.Text == word || k.Text == lemma {
			hasText = true
			break
		}
	}
	if !hasText {
		return false
	}
	if reading == "" {
		return true
	}

	normalized := ToHiragana(reading)
	for _, k := range entry.Kana {
		if ToHiragana(k.Text) == normalized {
			return true
		}
	}
	return false
}
