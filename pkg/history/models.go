package history

import "time"

// Article is one article added to the study book.
type Article struct {
	ID        int64
	Checksum  string
	Title     string
	Source    string
	Body      string
	Words     int
	Sentences int
	AddedAt   time.Time
}

// Session is one quiz run.
type Session struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the session is open
	Correct    int
	Wrong      int
}

// Answer is a single reply given during a session.
type Answer struct {
	SessionID  string
	WordID     string
	Word       string
	Correct    bool
	AnsweredAt time.Time
}

// WordStat aggregates the answers recorded for one word.
type WordStat struct {
	WordID     string
	Word       string
	Correct    int
	Wrong      int
	LastAnswer time.Time
}
