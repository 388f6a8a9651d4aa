package store

import (
	"database/sql"

	"github.com/pavelanni/medishorts/internal/model"
)

// AddCase stores the result of one workflow run.
func (s *Store) AddCase(c model.CaseRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO cases (topic_id, case_text, mcqs, answers, mnemonic,
			video_path, video_url, youtube_id, telegram_message_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.TopicID, c.CaseText, c.MCQsJSON, c.AnswersJSON, c.Mnemonic,
		c.VideoPath, c.VideoURL, c.YouTubeID, c.TelegramMessageID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetCase returns a case record by ID.
func (s *Store) GetCase(id int64) (model.CaseRecord, error) {
	var c model.CaseRecord
	err := s.db.QueryRow(
		`SELECT id, topic_id, case_text, mcqs, answers, mnemonic,
			video_path, video_url, youtube_id, telegram_message_id, created_at
		 FROM cases WHERE id = ?`, id,
	).Scan(&c.ID, &c.TopicID, &c.CaseText, &c.MCQsJSON, &c.AnswersJSON, &c.Mnemonic,
		&c.VideoPath, &c.VideoURL, &c.YouTubeID, &c.TelegramMessageID, &c.CreatedAt)
	return c, err
}

// GetImportedFileHash returns the recorded content hash for a previously
// imported topics file. Empty string means the file was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the content hash of an imported topics file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?, imported_at = CURRENT_TIMESTAMP`,
		path, hash, hash,
	)
	return err
}

// Statistics summarizes the database for the stats command.
func (s *Store) Statistics() (model.Statistics, error) {
	var stats model.Statistics

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM subjects`).Scan(&stats.TotalSubjects); err != nil {
		return stats, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM topics WHERE cycle_number = 1`).Scan(&stats.TotalTopics); err != nil {
		return stats, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cases`).Scan(&stats.TotalCases); err != nil {
		return stats, err
	}

	rows, err := s.db.Query(
		`SELECT s.name, COUNT(t.id)
		 FROM subjects s
		 LEFT JOIN topics t ON s.id = t.subject_id AND t.cycle_number = 1
		 GROUP BY s.id, s.name`,
	)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	stats.TopicsBySubject = make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return stats, err
		}
		stats.TopicsBySubject[name] = count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	ws, err := s.GetWorkflowState()
	if err != nil {
		return stats, err
	}
	stats.Workflow = ws
	return stats, nil
}
