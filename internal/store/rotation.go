package store

import (
	"database/sql"

	"github.com/pavelanni/medishorts/internal/model"
)

// currentCycle returns the highest cycle number present for a subject,
// defaulting to 1 when the subject has no topics yet.
func (s *Store) currentCycle(subjectID int64) (int, error) {
	var cycle sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(cycle_number) FROM topics WHERE subject_id = ?`, subjectID,
	).Scan(&cycle)
	if err != nil {
		return 0, err
	}
	if !cycle.Valid || cycle.Int64 < 1 {
		return 1, nil
	}
	return int(cycle.Int64), nil
}

// NextUnusedTopic returns the oldest unused topic in the subject's current
// cycle, or nil when the cycle is exhausted.
func (s *Store) NextUnusedTopic(subjectID int64) (*model.Topic, error) {
	cycle, err := s.currentCycle(subjectID)
	if err != nil {
		return nil, err
	}
	var t model.Topic
	err = s.db.QueryRow(
		`SELECT id, subject_id, topic_name, subtopic_name, cycle_number, used
		 FROM topics
		 WHERE subject_id = ? AND cycle_number = ? AND used = 0
		 ORDER BY id
		 LIMIT 1`,
		subjectID, cycle,
	).Scan(&t.ID, &t.SubjectID, &t.Name, &t.Subtopic, &t.Cycle, &t.Used)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// StartNewCycleIfExhausted begins a fresh cycle for a subject when every
// topic in the current cycle has been used: all topics are reset to unused
// and stamped with the next cycle number. Reports whether a new cycle began.
func (s *Store) StartNewCycleIfExhausted(subjectID int64) (bool, error) {
	cycle, err := s.currentCycle(subjectID)
	if err != nil {
		return false, err
	}
	var unused int
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM topics WHERE subject_id = ? AND cycle_number = ? AND used = 0`,
		subjectID, cycle,
	).Scan(&unused)
	if err != nil {
		return false, err
	}
	if unused > 0 {
		return false, nil
	}
	var total int
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM topics WHERE subject_id = ?`, subjectID,
	).Scan(&total)
	if err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}
	_, err = s.db.Exec(
		`UPDATE topics SET used = 0, cycle_number = ? WHERE subject_id = ?`,
		cycle+1, subjectID,
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// NextSubjectForRotation returns the subject following the one recorded in
// workflow state, wrapping around; the first subject on a fresh database.
// Returns 0 when no subjects exist.
func (s *Store) NextSubjectForRotation() (int64, error) {
	rows, err := s.db.Query(`SELECT id FROM subjects ORDER BY id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var current sql.NullInt64
	err = s.db.QueryRow(`SELECT current_subject_id FROM workflow_state WHERE id = 1`).Scan(&current)
	if err == sql.ErrNoRows || !current.Valid {
		return ids[0], nil
	}
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if id == current.Int64 {
			return ids[(i+1)%len(ids)], nil
		}
	}
	return ids[0], nil
}

// UpdateWorkflowState records the subject just processed and bumps the run
// counter.
func (s *Store) UpdateWorkflowState(subjectID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO workflow_state (id, current_subject_id, last_run_date, total_runs)
		 VALUES (1, ?, DATE('now'), 1)
		 ON CONFLICT(id) DO UPDATE SET
			current_subject_id = excluded.current_subject_id,
			last_run_date = excluded.last_run_date,
			total_runs = total_runs + 1,
			updated_at = CURRENT_TIMESTAMP`,
		subjectID,
	)
	return err
}

// GetWorkflowState returns the rotation state, or nil before the first run.
func (s *Store) GetWorkflowState() (*model.WorkflowState, error) {
	var ws model.WorkflowState
	var current sql.NullInt64
	err := s.db.QueryRow(
		`SELECT current_subject_id, last_run_date, total_runs FROM workflow_state WHERE id = 1`,
	).Scan(&current, &ws.LastRunDate, &ws.TotalRuns)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if current.Valid {
		ws.CurrentSubjectID = current.Int64
	}
	return &ws, nil
}
