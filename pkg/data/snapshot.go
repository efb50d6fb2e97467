package data

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// Prediction sources, one per snapshot artifact.
	SourceBase           string = "base"
	SourceFinetuned      string = "finetuned"
	SourceFinetunedOther string = "finetuned_other"
	SourceCrowd          string = "crowd"

	AnswersFileName        string = "answers.json"
	BaseFileName           string = "base_predictions.json"
	FinetunedFileName      string = "finetuned_predictions.json"
	FinetunedOtherFileName string = "finetuned_other_predictions.json"
	CrowdFileName          string = "crowd_predictions.json"

	insertQuestionSQL = `INSERT INTO question (retrieval, qid, answer)
		VALUES (?, ?, ?)
		ON CONFLICT (retrieval, qid) DO NOTHING
	`

	insertPredictionSQL = `INSERT INTO prediction (retrieval, qid, source, ord, prob)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (retrieval, qid, source, ord) DO NOTHING
	`
)

var (
	// PredictionSources lists the model sources in their snapshot order.
	PredictionSources = []string{
		SourceBase,
		SourceFinetuned,
		SourceFinetunedOther,
		SourceCrowd,
	}
)

// SnapshotFileNames returns the names of the five snapshot artifacts.
func SnapshotFileNames() []string {
	return []string{
		AnswersFileName,
		BaseFileName,
		FinetunedFileName,
		FinetunedOtherFileName,
		CrowdFileName,
	}
}

// Snapshot holds the five deserialized artifacts of a single dataset
// release. Every collection is indexed [retrieval][question]; model
// sources carry one probability per forecaster, the crowd source a
// single pre-aggregated probability per question.
type Snapshot struct {
	Answers        [][]int       `json:"answers"`
	Base           [][][]float64 `json:"base_predictions"`
	Finetuned      [][][]float64 `json:"finetuned_predictions"`
	FinetunedOther [][][]float64 `json:"finetuned_other_predictions"`
	Crowd          [][]float64   `json:"crowd_predictions"`
}

// ReadSnapshot loads the five snapshot files from the given directory.
func ReadSnapshot(dir string) (*Snapshot, error) {
	if dir == "" {
		return nil, errors.New("snapshot directory not specified")
	}

	s := &Snapshot{}
	if err := readSnapshotFile(dir, AnswersFileName, &s.Answers); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, BaseFileName, &s.Base); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, FinetunedFileName, &s.Finetuned); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, FinetunedOtherFileName, &s.FinetunedOther); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, CrowdFileName, &s.Crowd); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid snapshot in: %s", dir)
	}

	return s, nil
}

func readSnapshotFile[T any](dir, name string, target *T) error {
	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read snapshot file: %s", path)
	}
	if err := json.Unmarshal(b, target); err != nil {
		return errors.Wrapf(err, "failed to parse snapshot file: %s", path)
	}
	return nil
}

// Validate checks the cross-snapshot alignment invariant: all five
// collections must agree on the number of retrieval buckets and on the
// number of questions within each. A mismatch is a data-integrity bug
// in the artifacts, not a recoverable condition.
func (s *Snapshot) Validate() error {
	r := len(s.Answers)
	if r == 0 {
		return errors.New("snapshot has no retrieval buckets")
	}
	if len(s.Base) != r || len(s.Finetuned) != r || len(s.FinetunedOther) != r || len(s.Crowd) != r {
		return errors.Errorf(
			"retrieval bucket counts misaligned: answers=%d base=%d finetuned=%d finetuned_other=%d crowd=%d",
			r, len(s.Base), len(s.Finetuned), len(s.FinetunedOther), len(s.Crowd))
	}

	for i := range s.Answers {
		n := len(s.Answers[i])
		if len(s.Base[i]) != n || len(s.Finetuned[i]) != n || len(s.FinetunedOther[i]) != n || len(s.Crowd[i]) != n {
			return errors.Errorf(
				"question counts misaligned in retrieval %d: answers=%d base=%d finetuned=%d finetuned_other=%d crowd=%d",
				i, n, len(s.Base[i]), len(s.Finetuned[i]), len(s.FinetunedOther[i]), len(s.Crowd[i]))
		}

		for j, a := range s.Answers[i] {
			if a != 0 && a != 1 {
				return errors.Errorf("answer out of range in retrieval %d question %d: %d", i, j, a)
			}
		}
		for j, p := range s.Crowd[i] {
			if p < 0 || p > 1 {
				return errors.Errorf("crowd probability out of range in retrieval %d question %d: %f", i, j, p)
			}
		}
		for _, src := range []struct {
			name  string
			preds [][]float64
		}{
			{SourceBase, s.Base[i]},
			{SourceFinetuned, s.Finetuned[i]},
			{SourceFinetunedOther, s.FinetunedOther[i]},
		} {
			for j, set := range src.preds {
				if len(set) == 0 {
					return errors.Errorf("empty %s prediction set in retrieval %d question %d", src.name, i, j)
				}
				for _, p := range set {
					if p < 0 || p > 1 {
						return errors.Errorf("%s probability out of range in retrieval %d question %d: %f", src.name, i, j, p)
					}
				}
			}
		}
	}

	return nil
}

// Retrievals returns the number of retrieval buckets in the snapshot.
func (s *Snapshot) Retrievals() int {
	return len(s.Answers)
}

// Questions returns the total question count across all buckets.
func (s *Snapshot) Questions() int {
	n := 0
	for _, b := range s.Answers {
		n += len(b)
	}
	return n
}

// ImportSummary describes the outcome of a snapshot import.
type ImportSummary struct {
	Retrievals  int            `json:"retrievals"`
	Questions   int            `json:"questions"`
	Predictions map[string]int `json:"predictions"`
}

// ImportSnapshot writes a validated snapshot into the database in a
// single transaction.
func ImportSnapshot(db *sql.DB, s *Snapshot) (*ImportSummary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if s == nil {
		return nil, errors.New("snapshot is nil")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	questionStmt, err := db.Prepare(insertQuestionSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare question statement")
	}
	defer questionStmt.Close()

	predictionStmt, err := db.Prepare(insertPredictionSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare prediction statement")
	}
	defer predictionStmt.Close()

	tx, err := db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	summary := &ImportSummary{
		Retrievals:  s.Retrievals(),
		Questions:   s.Questions(),
		Predictions: make(map[string]int),
	}

	for i := range s.Answers {
		for j, a := range s.Answers[i] {
			if _, err = tx.Stmt(questionStmt).Exec(i, j, a); err != nil {
				return nil, rollback(tx, errors.Wrapf(err, "failed to insert question %d/%d", i, j))
			}

			sets := map[string][]float64{
				SourceBase:           s.Base[i][j],
				SourceFinetuned:      s.Finetuned[i][j],
				SourceFinetunedOther: s.FinetunedOther[i][j],
				SourceCrowd:          {s.Crowd[i][j]},
			}
			for _, src := range PredictionSources {
				for k, p := range sets[src] {
					if _, err = tx.Stmt(predictionStmt).Exec(i, j, src, k, p); err != nil {
						return nil, rollback(tx, errors.Wrapf(err, "failed to insert %s prediction %d/%d", src, i, j))
					}
					summary.Predictions[src]++
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}

	return summary, nil
}

func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		return errors.Wrapf(err, "failed to rollback transaction: %v", rbErr)
	}
	return err
}

// ClearData removes all previously imported questions and predictions.
func ClearData(db *sql.DB) error {
	if db == nil {
		return errDBNotInitialized
	}
	if _, err := db.Exec("DELETE FROM prediction"); err != nil {
		return errors.Wrap(err, "failed to clear predictions")
	}
	if _, err := db.Exec("DELETE FROM question"); err != nil {
		return errors.Wrap(err, "failed to clear questions")
	}
	return nil
}
