package quiz

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/studybook/pkg/studybook"
)

// QuitCommand ends a terminal session.
const QuitCommand = ":q"

// Terminal is a line-based Prompter.
type Terminal struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewTerminal reads answers from r, one per line, and writes prompts to w.
func NewTerminal(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{in: bufio.NewScanner(r), out: w}
}

// Ask prints the sentence and the word and reads one line. End of input or
// QuitCommand return ErrQuit.
func (t *Terminal) Ask(ctx context.Context, entry studybook.WordEntry, sentence string) (string, error) {
	if sentence = strings.TrimSpace(sentence); sentence != "" {
		fmt.Fprintf(t.out, "\n%s\n", sentence)
	}
	fmt.Fprintf(t.out, "%s (level %d) reading? ", entry.Text, entry.Level)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", ErrQuit
	}
	line := strings.TrimSpace(t.in.Text())
	if line == QuitCommand {
		return "", ErrQuit
	}
	return line, nil
}

// Feedback prints whether the answer was right and the annotation if any.
func (t *Terminal) Feedback(ctx context.Context, r Result) {
	switch {
	case r.Correct && r.Achieved:
		fmt.Fprintf(t.out, "correct, %s is learned\n", r.Entry.Text)
	case r.Correct:
		fmt.Fprintf(t.out, "correct, level %d\n", r.Level)
	default:
		fmt.Fprintf(t.out, "wrong, %s is read %s, level %d\n", r.Entry.Text, r.Entry.Hiragana, r.Level)
	}
	if a := r.Entry.AnnotationText(); a != "" {
		fmt.Fprintf(t.out, "  %s\n", a)
	}
}
