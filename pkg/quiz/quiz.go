// Package quiz runs study sessions over a book's word backlog.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/japaniel/studybook/pkg/dictionary"
	"github.com/japaniel/studybook/pkg/history"
	"github.com/japaniel/studybook/pkg/studybook"
)

// ErrQuit is returned by a Prompter to end a session early.
var ErrQuit = errors.New("quiz: quit")

// Prompter asks the learner for the reading of a word and shows the outcome.
type Prompter interface {
	Ask(ctx context.Context, entry studybook.WordEntry, sentence string) (string, error)
	Feedback(ctx context.Context, r Result)
}

// Result is the outcome of one question.
type Result struct {
	Entry   studybook.WordEntry
	Answer  string
	Correct bool
	// Level is the word's level after the answer was applied.
	Level uint
	// Achieved is set when the answer moved the word out of the backlog.
	Achieved bool
}

// Summary describes a finished session.
type Summary struct {
	SessionID string
	Asked     int
	Correct   int
	Wrong     int
	Quit      bool
	Status    studybook.Status
}

func (s Summary) String() string {
	return fmt.Sprintf("%d asked, %d correct, %d wrong; %s", s.Asked, s.Correct, s.Wrong, s.Status)
}

// Session drives one pass over a shuffled deck.
type Session struct {
	Prompter Prompter
	// History, when set, receives the session and every answer.
	History history.DBExecutor
	// Rand shuffles the deck; nil uses the global source.
	Rand *rand.Rand
	// Limit caps the questions asked; zero asks the whole deck.
	Limit  int
	Logger *slog.Logger
}

// Check reports whether answer matches the word's reading. Katakana is
// folded to hiragana and surrounding space is ignored.
func Check(entry studybook.WordEntry, answer string) bool {
	answer = dictionary.ToHiragana(strings.TrimSpace(answer))
	return answer != "" && answer == dictionary.ToHiragana(entry.Hiragana)
}

// Run asks every word of the deck once. A correct reading levels the word
// down, anything else levels it up. The book is modified in place.
func (s *Session) Run(ctx context.Context, b *studybook.Book) (Summary, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	deck := b.DrawDeckRand(s.Rand)
	if s.Limit > 0 && len(deck) > s.Limit {
		deck = deck[:s.Limit]
	}
	var sum Summary
	if len(deck) == 0 {
		sum.Status = b.Status()
		return sum, nil
	}

	if s.History != nil {
		id, err := history.StartSession(s.History)
		if err != nil {
			return sum, fmt.Errorf("start session: %w", err)
		}
		sum.SessionID = id
	}

	err := s.ask(ctx, log, b, deck, &sum)
	if sum.SessionID != "" {
		if ferr := history.FinishSession(s.History, sum.SessionID); ferr != nil && err == nil {
			err = fmt.Errorf("finish session: %w", ferr)
		}
	}
	sum.Status = b.Status()
	log.Info("session finished", "asked", sum.Asked, "correct", sum.Correct, "wrong", sum.Wrong, "quit", sum.Quit)
	return sum, err
}

func (s *Session) ask(ctx context.Context, log *slog.Logger, b *studybook.Book, deck []studybook.WordEntry, sum *Summary) error {
	for _, entry := range deck {
		if err := ctx.Err(); err != nil {
			return err
		}
		var sentence string
		if se, ok := b.Sentence(entry.SentenceID); ok {
			sentence = se.Text
		}
		answer, err := s.Prompter.Ask(ctx, entry, sentence)
		if errors.Is(err, ErrQuit) {
			sum.Quit = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("ask %q: %w", entry.Text, err)
		}

		id := entry.ID()
		res := Result{Entry: entry, Answer: answer, Correct: Check(entry, answer)}
		if res.Correct {
			err = b.LevelDown(id)
		} else {
			err = b.LevelUp(id)
		}
		if err != nil {
			return err
		}
		if e, ok := b.Words.Backlog[id]; ok {
			res.Level = e.Level
		} else {
			res.Achieved = true
		}

		sum.Asked++
		if res.Correct {
			sum.Correct++
		} else {
			sum.Wrong++
		}
		log.Debug("answered", "word", entry.Text, "correct", res.Correct, "level", res.Level)

		if sum.SessionID != "" {
			err := history.RecordAnswer(s.History, history.Answer{
				SessionID: sum.SessionID,
				WordID:    id,
				Word:      entry.Text,
				Correct:   res.Correct,
			})
			if err != nil {
				return fmt.Errorf("record answer: %w", err)
			}
		}
		s.Prompter.Feedback(ctx, res)
	}
	return nil
}
