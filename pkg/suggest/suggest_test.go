package suggest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/studybook/pkg/dictionary"
	"github.com/japaniel/studybook/pkg/markup"
	"github.com/japaniel/studybook/pkg/studybook"
)

const plain = "トヨタ自動車は工場の稼働を停止すると発表しました。"

func newAnnotator(t *testing.T, dict *dictionary.Index) *Annotator {
	t.Helper()
	an, err := NewAnnotator(dict)
	require.NoError(t, err)
	an.Workers = 2
	return an
}

func TestAnalyzeKeepsText(t *testing.T) {
	a, err := NewAnalyzer()
	require.NoError(t, err)

	tokens := a.Analyze(plain)
	require.NotEmpty(t, tokens)
	var surfaces []string
	found := false
	for _, tok := range tokens {
		surfaces = append(surfaces, tok.Surface)
		if tok.Surface == "工場" {
			found = true
			assert.Equal(t, "コウジョウ", tok.Reading)
			assert.Equal(t, "名詞", tok.PrimaryPOS)
		}
	}
	assert.True(t, found)
	assert.Equal(t, plain, strings.Join(surfaces, ""))
}

func TestAnnotate(t *testing.T) {
	an := newAnnotator(t, nil)
	out, stats, err := an.Annotate(context.Background(), plain)
	require.NoError(t, err)

	assert.Contains(t, out, "<<工場・こうじょう>>")
	assert.Contains(t, out, "<<発表・はっぴょう>>")
	assert.Equal(t, 1, stats.Sentences)
	assert.Greater(t, stats.Tagged, 2)

	// the proposal is valid markup and cleans back to the input
	sentences, err := markup.Default().Parse(out)
	require.NoError(t, err)
	require.Len(t, sentences, 1)
	assert.Equal(t, plain, sentences[0].Text)

	b, err := studybook.FromArticle(out)
	require.NoError(t, err)
	assert.Equal(t, stats.Tagged, b.Status().WordsBacklog)
}

func TestAnnotateTagsFirstOccurrenceOnly(t *testing.T) {
	an := newAnnotator(t, nil)
	out, _, err := an.Annotate(context.Background(), "工場は大きい。新しい工場が止まる。")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "<<工場・"))
	assert.Equal(t, 2, strings.Count(out, "工場"))
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestAnnotateKeepsExistingTags(t *testing.T) {
	an := newAnnotator(t, nil)
	out, _, err := an.Annotate(context.Background(), "<<工場・こうば>>の稼働。工場を見る。")
	require.NoError(t, err)
	assert.Contains(t, out, "<<工場・こうば>>")
	assert.NotContains(t, out, "<<工場・こうじょう>>")
	assert.Contains(t, out, "<<稼働・かどう>>")
}

func TestAnnotateWithDictionary(t *testing.T) {
	dict := dictionary.NewIndex([]dictionary.JMdictEntry{{
		Id:    "1",
		Kanji: []dictionary.JMdictElement{{Text: "工場", Common: true}},
		Kana:  []dictionary.JMdictElement{{Text: "こうじょう", Common: true}},
		Sense: []dictionary.JMdictSense{{Gloss: []dictionary.JMdictGloss{{Text: "factory"}, {Text: "plant"}}}},
	}})
	an := newAnnotator(t, dict)
	an.MaxGlosses = 1

	out, _, err := an.Annotate(context.Background(), plain)
	require.NoError(t, err)
	assert.Contains(t, out, "<<工場・こうじょう・factory>>")
}

func TestAnnotateNoKanji(t *testing.T) {
	an := newAnnotator(t, nil)
	out, stats, err := an.Annotate(context.Background(), "これはペンです。")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Tagged)
	assert.Equal(t, "これはペンです。\n", out)
}

func TestAnnotateCanceled(t *testing.T) {
	an := newAnnotator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := an.Annotate(ctx, plain)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnnotateOneSentencePerLine(t *testing.T) {
	an := newAnnotator(t, nil)
	out, stats, err := an.Annotate(context.Background(), "工場がある。\n\n  発表した。\n")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sentences)
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.NotContains(t, out, "\n\n")
	assert.True(t, strings.HasPrefix(out, "<<工場・"))
}
