package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ConversationRecord is one processed message and its reply. Records are
// append-only and read back only by the feedback learner.
type ConversationRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
}

// NewRecordID derives a conversation record identifier from the user and a
// second-granularity timestamp. Rapid-fire messages from the same user
// within one second collide; lookups take the first match, which is the
// accepted contract for this log.
func NewRecordID(userID string, ts time.Time) string {
	return fmt.Sprintf(conversationIDFmt, userID, ts.Format("20060102150405"))
}

// ConversationLog is a directory of one-record JSON files addressable by
// record ID.
type ConversationLog struct {
	dir string
}

// NewConversationLog creates the log directory if needed.
func NewConversationLog(dir string) (*ConversationLog, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, errors.Wrapf(err, "failed to create conversation log dir %s", dir)
	}
	return &ConversationLog{dir: dir}, nil
}

// Append writes a record file named after the record ID. An existing file
// with the same ID is overwritten; colliding IDs were indistinguishable on
// read anyway.
func (l *ConversationLog) Append(rec *ConversationRecord) error {
	return saveDocument(filepath.Join(l.dir, rec.ID+conversationGlob), rec)
}

// Find returns the first record, in sorted filename order, whose ID
// contains messageID as a substring. The bool result is false when no
// record matches or the matching file cannot be parsed.
func (l *ConversationLog) Find(messageID string) (*ConversationRecord, bool, error) {
	if messageID == "" {
		return nil, false, nil
	}

	names, err := l.list()
	if err != nil {
		return nil, false, err
	}
	for _, name := range names {
		id := strings.TrimSuffix(name, conversationGlob)
		if !strings.Contains(id, messageID) {
			continue
		}
		var rec ConversationRecord
		ok, err := loadDocument(filepath.Join(l.dir, name), &rec)
		if err != nil || !ok {
			return nil, false, err
		}
		return &rec, true, nil
	}
	return nil, false, nil
}

// Len returns the number of logged conversations.
func (l *ConversationLog) Len() int {
	names, err := l.list()
	if err != nil {
		return 0
	}
	return len(names)
}

func (l *ConversationLog) list() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list conversation log dir %s", l.dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), conversationGlob) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
