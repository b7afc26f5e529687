package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/studybook/pkg/store"
	"github.com/japaniel/studybook/pkg/studybook"
)

const article = "トヨタ自動車はあすからロシアにある<<工場・こうじょう>>の<<稼働・かどう・operation of a machine, running>>を<<停止・ていし>>すると<<発表・はっぴょう>>しました。"

type env struct {
	dir    string
	config string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	conf := filepath.Join(dir, "studybook.yaml")
	body := fmt.Sprintf("book_path: %s\nhistory_path: %s\nsnapshot_dir: %s\nlog_level: error\n",
		filepath.Join(dir, "book.json"), filepath.Join(dir, "history.db"), filepath.Join(dir, "snaps"))
	require.NoError(t, os.WriteFile(conf, []byte(body), 0o644))
	return &env{dir: dir, config: conf}
}

func (e *env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"--config", e.config}, args...)
	err := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (e *env) book(t *testing.T) *studybook.Book {
	t.Helper()
	b, err := store.Load(filepath.Join(e.dir, "book.json"))
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func TestAddFromStdin(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, article, "add", "--title", "toyota")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 4 words in 1 sentences.")

	b := e.book(t)
	assert.Equal(t, studybook.Status{WordsBacklog: 4, SentencesBacklog: 1}, b.Status())
	// the configured highlight is kept in stored sentences
	for _, s := range b.Sentences.Backlog {
		assert.Contains(t, s.Text, "`工場`")
	}

	out, err = e.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "words 4 backlog / 0 achieved")

	out, err = e.run(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "toyota")
	assert.Contains(t, out, "4 words")
}

func TestAddRefusesDuplicate(t *testing.T) {
	e := newEnv(t)
	file := filepath.Join(e.dir, "article.txt")
	require.NoError(t, os.WriteFile(file, []byte(article), 0o644))

	_, err := e.run(t, "", "add", file)
	require.NoError(t, err)
	_, err = e.run(t, "", "add", file)
	assert.ErrorIs(t, err, errDuplicate)

	_, err = e.run(t, "", "add", "--force", file)
	require.NoError(t, err)
	assert.Equal(t, 4, e.book(t).Status().WordsBacklog)
}

func TestAddWithoutTags(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "ただの文です。", "add")
	require.NoError(t, err)
	assert.Contains(t, out, "No tagged words found")
	_, err = os.Stat(filepath.Join(e.dir, "book.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestAddMalformed(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "<<工場・こうじょう の話。", "add")
	require.Error(t, err)
}

func TestStudyLevelsUpWrongAnswers(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, article, "add")
	require.NoError(t, err)

	out, err := e.run(t, "x\ny\n:q\n", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "2 asked, 0 correct, 2 wrong")

	levels := map[uint]int{}
	for _, w := range e.book(t).Words.Backlog {
		levels[w.Level]++
	}
	assert.Equal(t, map[uint]int{1: 2, 2: 2}, levels)

	out, err = e.run(t, "", "history", "--word", "工場")
	require.NoError(t, err)
	assert.Contains(t, out, "工場")
}

func TestStudyEmptyBook(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "study")
	require.NoError(t, err)
	assert.Contains(t, out, "no words in your backlog")
}

func TestSnapshotAndRestore(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, article, "add")
	require.NoError(t, err)

	out, err := e.run(t, "", "snapshot")
	require.NoError(t, err)
	snap := strings.TrimSpace(out)
	assert.FileExists(t, snap)

	// a second article changes the book, restore brings back the first
	_, err = e.run(t, "<<経済・けいざい>>の話。", "add")
	require.NoError(t, err)
	assert.Equal(t, 5, e.book(t).Status().WordsBacklog)

	_, err = e.run(t, "", "restore", snap)
	require.NoError(t, err)
	assert.Equal(t, 4, e.book(t).Status().WordsBacklog)

	// add snapshots the book it replaces, so the newest snapshot has 4 words
	_, err = e.run(t, "<<経済・けいざい>>の話。", "add", "--force")
	require.NoError(t, err)
	_, err = e.run(t, "", "restore")
	require.NoError(t, err)
	assert.Equal(t, 4, e.book(t).Status().WordsBacklog)
}

func TestSuggestWithoutDictionary(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "工場の稼働を停止した。", "suggest", "--no-dict")
	require.NoError(t, err)
	assert.Contains(t, out, "<<工場・こうじょう>>")

	_, err = e.run(t, "工場の稼働を停止した。", "suggest", "--no-dict", "--add")
	require.NoError(t, err)
	_, ok := e.book(t).Word(studybook.NewWord("工場").ID())
	assert.True(t, ok)
}

func TestCommandsAcceptInconsistentBook(t *testing.T) {
	e := newEnv(t)
	a, err := studybook.FromArticle("A<<経済・けいざい>>B<<強・つよ>>。")
	require.NoError(t, err)
	b, err := studybook.FromArticle("C<<経済・けいざい>>D。")
	require.NoError(t, err)
	m := studybook.Merge(a, b)
	// drift the volume of a sentence by hand
	for sid, s := range m.Sentences.Backlog {
		s.BacklogVolume += 3
		m.Sentences.Backlog[sid] = s
		break
	}
	require.NoError(t, store.Save(filepath.Join(e.dir, "book.json"), m))

	out, err := e.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "words 2 backlog")

	_, err = e.run(t, "<<工場・こうじょう>>の話。", "add")
	require.NoError(t, err)
	assert.Equal(t, 3, e.book(t).Status().WordsBacklog)
}
