package history

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// ErrNotFound is returned when a session or word has no record.
var ErrNotFound = errors.New("history: not found")

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Checksum returns the blake3 digest of an article body. Surrounding
// whitespace does not change it.
func Checksum(body string) string {
	sum := blake3.Sum256([]byte(strings.TrimSpace(body)))
	return hex.EncodeToString(sum[:])
}

// RecordArticle stores a, keyed by the checksum of its body. It returns the
// row id and whether the article was new; an article seen before keeps its
// original row.
func RecordArticle(db DBExecutor, a Article) (int64, bool, error) {
	if strings.TrimSpace(a.Body) == "" {
		return 0, false, fmt.Errorf("article body must be non-empty")
	}
	if a.Checksum == "" {
		a.Checksum = Checksum(a.Body)
	}
	if a.AddedAt.IsZero() {
		a.AddedAt = time.Now()
	}
	res, err := db.Exec(`INSERT OR IGNORE INTO articles (checksum, title, source, body, words, sentences, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Checksum, a.Title, a.Source, a.Body, a.Words, a.Sentences, a.AddedAt.UTC())
	if err != nil {
		return 0, false, fmt.Errorf("insert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM articles WHERE checksum = ?`, a.Checksum).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("select article: %w", err)
	}
	return id, n == 1, nil
}

// HasArticle reports whether an article with the same body was recorded.
func HasArticle(db DBExecutor, body string) (bool, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM articles WHERE checksum = ?`, Checksum(body)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListArticles returns the most recently added articles first. A limit of
// zero or less returns all of them.
func ListArticles(db DBExecutor, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT id, checksum, title, source, body, words, sentences, added_at
		FROM articles ORDER BY added_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Article
	for rows.Next() {
		var a Article
		var title, source sql.NullString
		if err := rows.Scan(&a.ID, &a.Checksum, &title, &source, &a.Body, &a.Words, &a.Sentences, &a.AddedAt); err != nil {
			return nil, err
		}
		a.Title = title.String
		a.Source = source.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StartSession opens a new quiz session and returns its id.
func StartSession(db DBExecutor) (string, error) {
	id := uuid.NewString()
	if _, err := db.Exec(`INSERT INTO sessions (id, started_at) VALUES (?, ?)`, id, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// RecordAnswer stores one reply and bumps the session counters.
func RecordAnswer(db DBExecutor, ans Answer) error {
	if ans.SessionID == "" {
		return fmt.Errorf("session id must be non-empty")
	}
	if ans.AnsweredAt.IsZero() {
		ans.AnsweredAt = time.Now()
	}
	column := "wrong"
	if ans.Correct {
		column = "correct"
	}
	res, err := db.Exec(`UPDATE sessions SET `+column+` = `+column+` + 1 WHERE id = ?`, ans.SessionID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("session %s: %w", ans.SessionID, ErrNotFound)
	}
	_, err = db.Exec(`INSERT INTO answers (session_id, word_id, word, correct, answered_at) VALUES (?, ?, ?, ?, ?)`,
		ans.SessionID, ans.WordID, ans.Word, ans.Correct, ans.AnsweredAt.UTC())
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// FinishSession marks a session as finished.
func FinishSession(db DBExecutor, id string) error {
	res, err := db.Exec(`UPDATE sessions SET finished_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetSession loads a session by id.
func GetSession(db DBExecutor, id string) (Session, error) {
	var s Session
	var finished sql.NullTime
	err := db.QueryRow(`SELECT id, started_at, finished_at, correct, wrong FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.StartedAt, &finished, &s.Correct, &s.Wrong)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, err
	}
	if finished.Valid {
		s.FinishedAt = finished.Time
	}
	return s, nil
}

// WordStats aggregates every answer recorded for a word id.
func WordStats(db DBExecutor, wordID string) (WordStat, error) {
	st := WordStat{WordID: wordID}
	var correct, wrong sql.NullInt64
	err := db.QueryRow(`SELECT SUM(correct), SUM(1 - correct) FROM answers WHERE word_id = ?`, wordID).
		Scan(&correct, &wrong)
	if err != nil {
		return WordStat{}, err
	}
	if !correct.Valid {
		return WordStat{}, fmt.Errorf("word %s: %w", wordID, ErrNotFound)
	}
	st.Correct = int(correct.Int64)
	st.Wrong = int(wrong.Int64)

	// aggregates lose the column type, so the timestamp is read directly
	err = db.QueryRow(`SELECT word, answered_at FROM answers WHERE word_id = ? ORDER BY answered_at DESC, id DESC LIMIT 1`, wordID).
		Scan(&st.Word, &st.LastAnswer)
	if err != nil {
		return WordStat{}, err
	}
	return st, nil
}
