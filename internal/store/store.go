package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/medishorts/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id INTEGER NOT NULL,
		topic_name TEXT NOT NULL,
		subtopic_name TEXT NOT NULL DEFAULT '',
		cycle_number INTEGER NOT NULL DEFAULT 1,
		used INTEGER NOT NULL DEFAULT 0,
		last_used_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (subject_id) REFERENCES subjects(id),
		UNIQUE(subject_id, topic_name, subtopic_name)
	);

	CREATE TABLE IF NOT EXISTS cases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic_id INTEGER NOT NULL,
		case_text TEXT NOT NULL,
		mcqs TEXT NOT NULL,
		answers TEXT NOT NULL,
		mnemonic TEXT NOT NULL,
		video_path TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL DEFAULT '',
		youtube_id TEXT NOT NULL DEFAULT '',
		telegram_message_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (topic_id) REFERENCES topics(id)
	);

	CREATE TABLE IF NOT EXISTS workflow_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		current_subject_id INTEGER,
		last_run_date TEXT NOT NULL DEFAULT '',
		total_runs INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_topics_subject_used
	ON topics(subject_id, used, cycle_number);

	CREATE INDEX IF NOT EXISTS idx_cases_topic
	ON cases(topic_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AddSubject inserts a subject, or returns the existing ID if the name is
// already present.
func (s *Store) AddSubject(name string) (int64, error) {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO subjects (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return res.LastInsertId()
	}
	var id int64
	err = s.db.QueryRow(`SELECT id FROM subjects WHERE name = ?`, name).Scan(&id)
	return id, err
}

// ListSubjects returns all subjects in insertion order.
func (s *Store) ListSubjects() ([]model.Subject, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM subjects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subjects []model.Subject
	for rows.Next() {
		var sub model.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, sub)
	}
	return subjects, rows.Err()
}

// GetSubject returns a subject by ID.
func (s *Store) GetSubject(id int64) (model.Subject, error) {
	var sub model.Subject
	err := s.db.QueryRow(
		`SELECT id, name, created_at FROM subjects WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Name, &sub.CreatedAt)
	return sub, err
}

// AddTopic inserts a topic for a subject. Returns 0 and no error when the
// topic already exists for this cycle (duplicate imports are expected).
func (s *Store) AddTopic(subjectID int64, topic, subtopic string, cycle int) (int64, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO topics (subject_id, topic_name, subtopic_name, cycle_number)
		 VALUES (?, ?, ?, ?)`,
		subjectID, topic, subtopic, cycle,
	)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return 0, err
	}
	return res.LastInsertId()
}

// TopicCount returns the number of cycle-1 topics for a subject.
func (s *Store) TopicCount(subjectID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM topics WHERE subject_id = ? AND cycle_number = 1`, subjectID,
	).Scan(&count)
	return count, err
}

// MarkTopicUsed marks a topic as consumed in the current cycle.
func (s *Store) MarkTopicUsed(topicID int64) error {
	_, err := s.db.Exec(
		`UPDATE topics SET used = 1, last_used_at = ? WHERE id = ?`,
		time.Now(), topicID,
	)
	return err
}
