// Command studybook builds a vocabulary study book from tagged Japanese
// articles and quizzes the learner on it.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/japaniel/studybook/pkg/config"
	"github.com/japaniel/studybook/pkg/history"
	"github.com/japaniel/studybook/pkg/logging"
	"github.com/japaniel/studybook/pkg/markup"
	"github.com/japaniel/studybook/pkg/store"
	"github.com/japaniel/studybook/pkg/studybook"
)

// CLI defines the command-line interface using Kong
type CLI struct {
	Config   string `name:"config" short:"c" help:"Config file (default: studybook.yaml)" type:"path"`
	LogLevel string `name:"log-level" help:"Override log_level (debug, info, warn, error)"`

	Add      AddCmd      `cmd:"" help:"Add a tagged article to the book"`
	Study    StudyCmd    `cmd:"" help:"Quiz the words in the backlog"`
	Status   StatusCmd   `cmd:"" help:"Show backlog and achieved counts"`
	Suggest  SuggestCmd  `cmd:"" help:"Propose tags for plain Japanese text"`
	History  HistoryCmd  `cmd:"" help:"List added articles or answer stats for a word"`
	Snapshot SnapshotCmd `cmd:"" help:"Write a compressed snapshot of the book"`
	Restore  RestoreCmd  `cmd:"" help:"Replace the book with a snapshot"`
}

// App carries what every command needs.
type App struct {
	Ctx    context.Context
	Cfg    *config.Config
	Parser *markup.Parser
	Log    *slog.Logger
	In     io.Reader
	Out    io.Writer

	db *sql.DB
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "studybook: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("studybook"),
		kong.Description("Learn Japanese vocabulary from your own tagged articles."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Level = cli.LogLevel
	}
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	mp, err := markup.New(cfg.ParserOptions())
	if err != nil {
		return fmt.Errorf("markup settings: %w", err)
	}

	app := &App{
		Ctx:    ctx,
		Cfg:    cfg,
		Parser: mp,
		Log:    logging.New(level, format, stderr),
		In:     stdin,
		Out:    stdout,
	}
	defer app.close()
	return kctx.Run(app)
}

// history opens the history database on first use. It returns nil when
// history_path is empty.
func (a *App) history() (*sql.DB, error) {
	if a.db != nil || a.Cfg.HistoryPath == "" {
		return a.db, nil
	}
	db, err := history.Open(a.Cfg.HistoryPath)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *App) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// loadBook returns the stored book or an empty one. Entries that disagree
// with each other are reported but do not stop the command.
func (a *App) loadBook() (*studybook.Book, error) {
	b, err := store.Load(a.Cfg.BookPath)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &studybook.Book{}, nil
	}
	if err := b.Validate(); err != nil {
		a.Log.Warn("book entries are inconsistent", "path", a.Cfg.BookPath, "error", err)
	}
	return b, nil
}

// snapshot keeps a copy of b before it is replaced. An empty book was never
// saved and has nothing to keep.
func (a *App) snapshot(b *studybook.Book) error {
	if a.Cfg.SnapshotDir == "" || b.Status() == (studybook.Status{}) {
		return nil
	}
	path, err := store.Snapshot(a.Cfg.SnapshotDir, b, a.Cfg.SnapshotKeep)
	if err != nil {
		return err
	}
	a.Log.Debug("snapshot written", "path", path)
	return nil
}
