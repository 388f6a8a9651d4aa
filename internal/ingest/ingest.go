// Package ingest parses curriculum topic files and loads them into the
// content database. Files are content-hashed so re-running an import is a
// no-op until the file changes.
package ingest

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pavelanni/medishorts/internal/i18n"
	"github.com/pavelanni/medishorts/internal/model"
	"github.com/pavelanni/medishorts/internal/store"
)

// Importer loads topic files and AI-generated topics into the store.
type Importer struct {
	store *store.Store
}

// New creates an importer.
func New(st *store.Store) *Importer {
	return &Importer{store: st}
}

// Summary reports what one import did.
type Summary struct {
	Skipped    bool
	Subjects   int
	Imported   int
	PerSubject map[string]int
}

// ParseTopics reads a curriculum file and groups topic/subtopic pairs by
// subject. The format is line based:
//
//	# Subject Name
//	Day | Topic | Subtopic | Status
//
// Lines starting with "##" or "---" and blank lines are ignored. The day
// and status columns are ignored; only topic and subtopic are kept.
func ParseTopics(r io.Reader) (map[string][]model.TopicImport, []string, error) {
	bySubject := make(map[string][]model.TopicImport)
	var order []string
	var current string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "##") || strings.HasPrefix(line, "---") {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			current = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			if _, seen := bySubject[current]; !seen && current != "" {
				bySubject[current] = nil
				order = append(order, current)
			}
			continue
		}
		if !strings.Contains(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		topic := strings.TrimSpace(parts[1])
		subtopic := strings.TrimSpace(parts[2])
		if current == "" || topic == "" || subtopic == "" {
			continue
		}
		bySubject[current] = append(bySubject[current], model.TopicImport{
			Topic:    topic,
			Subtopic: subtopic,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan topics file: %w", err)
	}
	return bySubject, order, nil
}

// ImportFile parses and imports a topics file, skipping it entirely when
// its content hash matches the last import.
func (imp *Importer) ImportFile(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	prev, err := imp.store.GetImportedFileHash(path)
	if err != nil {
		return nil, fmt.Errorf("check imported hash: %w", err)
	}
	if prev == hash {
		slog.Info("topics file unchanged, skipping import", "path", path)
		return &Summary{Skipped: true}, nil
	}

	bySubject, order, err := ParseTopics(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}

	summary := &Summary{PerSubject: make(map[string]int)}
	for _, subject := range order {
		topics := bySubject[subject]
		if len(topics) == 0 {
			continue
		}
		n, err := imp.importSubject(subject, topics)
		if err != nil {
			return nil, err
		}
		summary.Subjects++
		summary.Imported += n
		summary.PerSubject[subject] = n
		slog.Info("imported topics", "subject", subject, "count", n)
	}

	if err := imp.store.SetImportedFileHash(path, hash); err != nil {
		return nil, fmt.Errorf("record imported hash: %w", err)
	}
	return summary, nil
}

// Available reports the localized size of the topic pool, shown to the
// operator after an import.
func (imp *Importer) Available(ctx context.Context) (string, error) {
	stats, err := imp.store.Statistics()
	if err != nil {
		return "", fmt.Errorf("collect statistics: %w", err)
	}
	return i18n.Tp(ctx, "TopicsAvailable", stats.TotalTopics), nil
}

// ImportGenerated adds AI-generated topics for a subject. Duplicates are
// silently skipped; returns how many were actually added.
func (imp *Importer) ImportGenerated(subject string, topics []model.TopicImport) (int, error) {
	return imp.importSubject(subject, topics)
}

func (imp *Importer) importSubject(subject string, topics []model.TopicImport) (int, error) {
	subjectID, err := imp.store.AddSubject(subject)
	if err != nil {
		return 0, fmt.Errorf("add subject %s: %w", subject, err)
	}
	added := 0
	for _, t := range topics {
		id, err := imp.store.AddTopic(subjectID, t.Topic, t.Subtopic, 1)
		if err != nil {
			return added, fmt.Errorf("add topic %s/%s: %w", t.Topic, t.Subtopic, err)
		}
		if id != 0 {
			added++
		}
	}
	return added, nil
}
