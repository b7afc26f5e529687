package markup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	article = "ロシアへの<<経済制裁・けいざいせいさい>>が<<強・つよ>>まる<<中・なか>>、日本の<<自動車・じどうしゃ>>メーカーに<<影響・えいきょう・>>が<<広がっています・ひろがる・to spread out>>。トヨタ自動車はあすからロシアにある<<工場・こうじょう>>の<<稼働・かどう・operation of a machine, running>>を<<停止・ていし>>すると<<発表・はっぴょう>>しました。"
	partial = "トヨタ自動車はあすからロシアにある<<工場・こうじょう>>の<<稼働・かどう・operation of a machine, running>>を"
)

func TestSentences(t *testing.T) {
	p := Default()
	got := p.Sentences(article)
	require.Len(t, got, 2)
	assert.Equal(t, "ロシアへの<<経済制裁・けいざいせいさい>>が<<強・つよ>>まる<<中・なか>>、日本の<<自動車・じどうしゃ>>メーカーに<<影響・えいきょう・>>が<<広がっています・ひろがる・to spread out>>", got[0])
	assert.Equal(t, "トヨタ自動車はあすからロシアにある<<工場・こうじょう>>の<<稼働・かどう・operation of a machine, running>>を<<停止・ていし>>すると<<発表・はっぴょう>>しました", got[1])

	// splitting does not consume the source
	assert.Equal(t, got, p.Sentences(article))
}

func TestSentencesDropsEmptyPieces(t *testing.T) {
	p := Default()
	assert.Empty(t, p.Sentences(""))
	assert.Empty(t, p.Sentences("。。"))
	assert.Equal(t, []string{"A", "\nB"}, p.Sentences("A。。\nB。\n"))
	assert.Equal(t, []string{" A "}, p.Sentences(" A 。 \n\t"))
}

func TestClean(t *testing.T) {
	p := Default()
	assert.Equal(t, "トヨタ自動車はあすからロシアにある工場の稼働を。", p.Clean(partial))
	assert.Equal(t, "へへへ。", p.Clean("へへへ"))
}

func TestCleanWithHighlight(t *testing.T) {
	opts := DefaultOptions()
	opts.Highlight = "`"
	p, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, "トヨタ自動車はあすからロシアにある`工場`の`稼働`を。", p.Clean(partial))
}

func TestTagBodies(t *testing.T) {
	p := Default()
	assert.Equal(t, []string{
		"工場・こうじょう",
		"稼働・かどう・operation of a machine, running",
	}, p.TagBodies(partial))
	assert.Empty(t, p.TagBodies("へへへ"))
}

func TestFields(t *testing.T) {
	p := Default()
	assert.Equal(t, []string{"稼働", "かどう", "operation of a machine, running"}, p.Fields("稼働・かどう・operation of a machine, running"))
	assert.Equal(t, []string{"工場", "こうじょう"}, p.Fields("工場・こうじょう"))
	assert.Equal(t, []string{"影響", "えいきょう"}, p.Fields("影響・えいきょう・"))
	// only the first two delimiters split
	assert.Equal(t, []string{"中", "なか", "inside・middle"}, p.Fields("中・なか・inside・middle"))
}

func TestParseScenario(t *testing.T) {
	p := Default()
	got, err := p.Parse("A<<経済制裁・けいざいせいさい>>B<<強・つよ>>。C<<工場・こうじょう>>D。")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A経済制裁B強。", got[0].Text)
	assert.Equal(t, []Tag{
		{Word: "経済制裁", Hiragana: "けいざいせいさい"},
		{Word: "強", Hiragana: "つよ"},
	}, got[0].Tags)

	assert.Equal(t, "C工場D。", got[1].Text)
	assert.Equal(t, []Tag{{Word: "工場", Hiragana: "こうじょう"}}, got[1].Tags)
}

func TestParseMalformed(t *testing.T) {
	p := Default()
	cases := map[string]string{
		"unclosed":  "A<<強・つよ。",
		"stray":     "A強・つよ>>B。",
		"one field": "A<<強>>。",
		"nested":    "A<<強<<弱・よわ>>。",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, 0, se.Sentence)
		})
	}
}

func TestCustomDelimiters(t *testing.T) {
	p, err := New(Options{SentenceDelimiter: ".", TagOpen: "[", TagClose: "]", FieldDelimiter: "|"})
	require.NoError(t, err)
	got, err := p.Parse("I [ran|ラン|past of run] home. Then [slept|スレプト].")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "I ran home.", got[0].Text)
	assert.Equal(t, "past of run", got[0].Tags[0].Annotation)
	// the space after the first delimiter belongs to the second sentence
	assert.Equal(t, " Then slept.", got[1].Text)
}

func TestNewRejectsUnknownHighlight(t *testing.T) {
	_, err := New(Options{Highlight: "*"})
	assert.Error(t, err)
	_, err = New(Options{Highlight: HighlightMarker})
	assert.NoError(t, err)
}

func TestNewRejectsOverlappingDelimiters(t *testing.T) {
	_, err := New(Options{TagOpen: "|", TagClose: "|"})
	assert.Error(t, err)
	_, err = New(Options{SentenceDelimiter: "・"})
	assert.Error(t, err)
}

func TestSegments(t *testing.T) {
	p := Default()
	assert.Equal(t, []Segment{
		{Text: "A"},
		{Text: "<<強・つよ>>", IsTag: true},
		{Text: "い"},
		{Text: "<<弱・よわ>>", IsTag: true},
	}, p.Segments("A<<強・つよ>>い<<弱・よわ>>"))
	assert.Equal(t, []Segment{{Text: "へへ"}}, p.Segments("へへ"))
	assert.Empty(t, p.Segments(""))
}

func TestTagFormatting(t *testing.T) {
	p := Default()
	assert.Equal(t, "<<強・つよ>>", p.Tag(Tag{Word: "強", Hiragana: "つよ"}))
	tag := Tag{Word: "稼働", Hiragana: "かどう", Annotation: "operation"}
	formatted := p.Tag(tag)
	assert.Equal(t, "<<稼働・かどう・operation>>", formatted)

	got, err := p.Parse(formatted + "。")
	require.NoError(t, err)
	assert.Equal(t, []Tag{tag}, got[0].Tags)
}
