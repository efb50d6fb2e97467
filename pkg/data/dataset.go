package data

import (
	"database/sql"

	"github.com/pkg/errors"
)

const (
	selectQuestionsSQL = `SELECT retrieval, qid, answer
		FROM question
		ORDER BY retrieval, qid
	`

	selectPredictionsSQL = `SELECT retrieval, qid, source, prob
		FROM prediction
		ORDER BY retrieval, qid, source, ord
	`
)

// Question is a single forecasting question with its resolved outcome
// and the prediction sets of every source.
type Question struct {
	Retrieval      int       `json:"retrieval"`
	ID             int       `json:"id"`
	Answer         float64   `json:"answer"`
	Base           []float64 `json:"base,omitempty"`
	Finetuned      []float64 `json:"finetuned,omitempty"`
	FinetunedOther []float64 `json:"finetuned_other,omitempty"`
	Crowd          float64   `json:"crowd"`
}

// Bucket groups the questions of one retrieval date.
type Bucket struct {
	Retrieval int         `json:"retrieval"`
	Questions []*Question `json:"questions"`
}

// Dataset is the full imported dataset, held immutably in memory for
// the duration of an evaluation run.
type Dataset struct {
	Buckets []*Bucket `json:"buckets"`
}

// Questions returns the total question count across all buckets.
func (d *Dataset) Questions() int {
	n := 0
	for _, b := range d.Buckets {
		n += len(b.Questions)
	}
	return n
}

// GetDataset loads every question and its prediction sets from the
// database, grouped by retrieval bucket.
func GetDataset(db *sql.DB) (*Dataset, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	byKey := make(map[[2]int]*Question)
	ds := &Dataset{Buckets: make([]*Bucket, 0)}

	rows, err := db.Query(selectQuestionsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query questions")
	}
	defer rows.Close()

	var bucket *Bucket
	for rows.Next() {
		q := &Question{}
		if err := rows.Scan(&q.Retrieval, &q.ID, &q.Answer); err != nil {
			return nil, errors.Wrap(err, "failed to scan question row")
		}
		if bucket == nil || bucket.Retrieval != q.Retrieval {
			bucket = &Bucket{Retrieval: q.Retrieval, Questions: make([]*Question, 0)}
			ds.Buckets = append(ds.Buckets, bucket)
		}
		bucket.Questions = append(bucket.Questions, q)
		byKey[[2]int{q.Retrieval, q.ID}] = q
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate question rows")
	}

	if len(ds.Buckets) == 0 {
		return nil, errors.New("no questions imported, run import first")
	}

	preds, err := db.Query(selectPredictionsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query predictions")
	}
	defer preds.Close()

	for preds.Next() {
		var retrieval, qid int
		var source string
		var prob float64
		if err := preds.Scan(&retrieval, &qid, &source, &prob); err != nil {
			return nil, errors.Wrap(err, "failed to scan prediction row")
		}

		q, ok := byKey[[2]int{retrieval, qid}]
		if !ok {
			return nil, errors.Errorf("prediction without question: retrieval %d question %d", retrieval, qid)
		}

		switch source {
		case SourceBase:
			q.Base = append(q.Base, prob)
		case SourceFinetuned:
			q.Finetuned = append(q.Finetuned, prob)
		case SourceFinetunedOther:
			q.FinetunedOther = append(q.FinetunedOther, prob)
		case SourceCrowd:
			q.Crowd = prob
		default:
			return nil, errors.Errorf("unknown prediction source: %s", source)
		}
	}
	if err := preds.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate prediction rows")
	}

	return ds, nil
}
