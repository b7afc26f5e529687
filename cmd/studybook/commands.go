package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/japaniel/studybook/pkg/article"
	"github.com/japaniel/studybook/pkg/dictionary"
	"github.com/japaniel/studybook/pkg/history"
	"github.com/japaniel/studybook/pkg/quiz"
	"github.com/japaniel/studybook/pkg/store"
	"github.com/japaniel/studybook/pkg/studybook"
	"github.com/japaniel/studybook/pkg/suggest"
)

// errDuplicate is returned by add for an article that was added before.
var errDuplicate = errors.New("article was already added, use --force to add it again")

// readInput reads a file, or stdin for "" and "-".
func readInput(app *App, path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(app.In)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// AddCmd adds a tagged article to the book.
type AddCmd struct {
	File   string `arg:"" optional:"" help:"Article file; stdin when omitted or -"`
	Title  string `name:"title" help:"Title stored in the history"`
	Source string `name:"source" help:"Where the article came from"`
	Force  bool   `name:"force" short:"f" help:"Add the article even if it was added before"`
}

func (c *AddCmd) Run(app *App) error {
	text, err := readInput(app, c.File)
	if err != nil {
		return fmt.Errorf("read article: %w", err)
	}
	source := c.Source
	if source == "" && c.File != "-" {
		source = c.File
	}
	return addArticle(app, text, c.Title, source, c.Force)
}

func addArticle(app *App, text, title, source string, force bool) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("article is empty")
	}
	db, err := app.history()
	if err != nil {
		return err
	}
	if db != nil && !force {
		seen, err := history.HasArticle(db, text)
		if err != nil {
			return err
		}
		if seen {
			return errDuplicate
		}
	}

	added, err := studybook.FromArticleWith(app.Parser, text)
	if err != nil {
		return err
	}
	if added.HasNoBacklogWords() {
		fmt.Fprintln(app.Out, "No tagged words found. Mark words like <<工場・こうじょう>>.")
		return nil
	}
	current, err := app.loadBook()
	if err != nil {
		return err
	}
	if err := app.snapshot(current); err != nil {
		return err
	}
	merged, report := studybook.MergeWithReport(current, added)
	if err := store.Save(app.Cfg.BookPath, merged); err != nil {
		return err
	}

	if db != nil {
		_, _, err := history.RecordArticle(db, history.Article{
			Title:     title,
			Source:    source,
			Body:      text,
			Words:     report.Added.WordsBacklog,
			Sentences: report.Added.SentencesBacklog,
		})
		if err != nil {
			return err
		}
	}
	app.Log.Info("article added", "words", report.Added.WordsBacklog, "sentences", report.Added.SentencesBacklog)
	fmt.Fprintf(app.Out, "Added %d words in %d sentences.\nBook: %s\n",
		report.Added.WordsBacklog, report.Added.SentencesBacklog, report.Result)
	return nil
}

// StudyCmd quizzes the backlog.
type StudyCmd struct {
	Limit int `name:"limit" short:"n" help:"Ask at most this many words"`
}

func (c *StudyCmd) Run(app *App) error {
	b, err := app.loadBook()
	if err != nil {
		return err
	}
	if b.HasNoBacklogWords() {
		fmt.Fprintln(app.Out, "Good job! There are no words in your backlog. Add an article first.")
		return nil
	}
	db, err := app.history()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Type the reading in hiragana, %s to stop.\n", quiz.QuitCommand)
	s := &quiz.Session{
		Prompter: quiz.NewTerminal(app.In, app.Out),
		Limit:    c.Limit,
		Logger:   app.Log,
	}
	if db != nil {
		s.History = db
	}
	sum, runErr := s.Run(app.Ctx, b)
	if sum.Asked > 0 {
		if err := store.Save(app.Cfg.BookPath, b); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(app.Out, "\n%s\n", sum)
	return nil
}

// StatusCmd prints the four collection counts.
type StatusCmd struct{}

func (c *StatusCmd) Run(app *App) error {
	b, err := app.loadBook()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, b.Status())
	return nil
}

// SuggestCmd proposes tags for plain text.
type SuggestCmd struct {
	File string `arg:"" optional:"" help:"Plain text file; stdin when omitted or -"`
	URL  string `name:"url" short:"u" help:"Fetch the article from a web page instead"`
	Dict bool   `name:"dict" default:"true" negatable:"" help:"Add English glosses from JMdict (downloaded on first use)"`
	Add  bool   `name:"add" help:"Add the proposal to the book instead of printing it"`
}

func (c *SuggestCmd) Run(app *App) error {
	var text, title, source string
	if c.URL != "" {
		a, err := article.Fetch(app.Ctx, nil, c.URL)
		if err != nil {
			return err
		}
		text, title, source = a.Text, a.Title, a.URL
	} else {
		var err error
		if text, err = readInput(app, c.File); err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		source = c.File
	}

	an, err := suggest.NewAnnotator(nil)
	if err != nil {
		return err
	}
	an.Parser = app.Parser
	an.Workers = app.Cfg.Workers
	an.Logger = app.Log
	if c.Dict {
		an.Dict = c.loadDict(app)
	}

	out, stats, err := an.Annotate(app.Ctx, text)
	if err != nil {
		return err
	}
	app.Log.Info("suggested tags", "sentences", stats.Sentences, "tagged", stats.Tagged, "no_reading", stats.NoReading)
	if c.Add {
		return addArticle(app, out, title, source, false)
	}
	_, err = io.WriteString(app.Out, out)
	return err
}

// loadDict returns nil when the dictionary cannot be had; suggestions then
// come without glosses.
func (c *SuggestCmd) loadDict(app *App) *dictionary.Index {
	d := &dictionary.Downloader{Logger: app.Log}
	if err := d.Ensure(app.Ctx, app.Cfg.DictPath); err != nil {
		app.Log.Warn("dictionary unavailable, continuing without glosses", "path", app.Cfg.DictPath, "error", err)
		return nil
	}
	entries, err := dictionary.LoadJMdictSimplified(app.Cfg.DictPath)
	if err != nil {
		app.Log.Warn("failed to load dictionary", "path", app.Cfg.DictPath, "error", err)
		return nil
	}
	return dictionary.NewIndex(entries)
}

// HistoryCmd lists articles or the stats of one word.
type HistoryCmd struct {
	Limit int    `name:"limit" short:"n" default:"10" help:"Number of articles to list, 0 for all"`
	Word  string `name:"word" short:"w" help:"Show answer stats for this word"`
}

func (c *HistoryCmd) Run(app *App) error {
	db, err := app.history()
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("history is disabled, set history_path")
	}
	if c.Word != "" {
		st, err := history.WordStats(db, studybook.NewWord(c.Word).ID())
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintf(app.Out, "%s has not been asked yet\n", c.Word)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "%s: %d correct, %d wrong, last asked %s\n",
			st.Word, st.Correct, st.Wrong, st.LastAnswer.Local().Format("2006-01-02 15:04"))
		return nil
	}
	articles, err := history.ListArticles(db, c.Limit)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Fprintln(app.Out, "No articles added yet.")
		return nil
	}
	for _, a := range articles {
		title := a.Title
		if title == "" {
			title = firstLine(a.Body, 30)
		}
		fmt.Fprintf(app.Out, "%s  %3d words  %s\n", a.AddedAt.Local().Format("2006-01-02 15:04"), a.Words, title)
	}
	return nil
}

func firstLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > max {
		s = string(r[:max]) + "…"
	}
	return s
}

// SnapshotCmd writes a snapshot of the current book.
type SnapshotCmd struct{}

func (c *SnapshotCmd) Run(app *App) error {
	if app.Cfg.SnapshotDir == "" {
		return errors.New("snapshots are disabled, set snapshot_dir")
	}
	b, err := store.Load(app.Cfg.BookPath)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("no book at %s", app.Cfg.BookPath)
	}
	path, err := store.Snapshot(app.Cfg.SnapshotDir, b, app.Cfg.SnapshotKeep)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, path)
	return nil
}

// RestoreCmd replaces the book with a snapshot.
type RestoreCmd struct {
	Path string `arg:"" optional:"" help:"Snapshot file; the newest one when omitted"`
}

func (c *RestoreCmd) Run(app *App) error {
	path := c.Path
	if path == "" {
		var err error
		if path, err = store.LatestSnapshot(app.Cfg.SnapshotDir); err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("no snapshots in %s", app.Cfg.SnapshotDir)
		}
	}
	b, err := store.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("snapshot %s does not exist", path)
	}
	if err := store.Save(app.Cfg.BookPath, b); err != nil {
		return err
	}
	app.Log.Info("book restored", "snapshot", path)
	fmt.Fprintf(app.Out, "Restored %s\nBook: %s\n", path, b.Status())
	return nil
}
