package data

import (
	"database/sql"

	"github.com/pkg/errors"
)

const (
	selectBucketSummarySQL = `SELECT
			q.retrieval,
			COUNT(DISTINCT q.qid) AS questions,
			p.source,
			COUNT(p.prob) AS predictions
		FROM question q
		JOIN prediction p ON q.retrieval = p.retrieval AND q.qid = p.qid
		GROUP BY q.retrieval, p.source
		ORDER BY q.retrieval, p.source
	`

	selectQuestionListSQL = `SELECT
			q.retrieval,
			q.qid,
			q.answer,
			COUNT(p.prob) AS predictions
		FROM question q
		LEFT JOIN prediction p ON q.retrieval = p.retrieval AND q.qid = p.qid
		WHERE q.retrieval = COALESCE(?, q.retrieval)
		GROUP BY q.retrieval, q.qid
		ORDER BY q.retrieval, q.qid
		LIMIT ?
	`

	selectQuestionDetailSQL = `SELECT answer FROM question WHERE retrieval = ? AND qid = ?`

	selectQuestionPredictionsSQL = `SELECT source, prob
		FROM prediction
		WHERE retrieval = ? AND qid = ?
		ORDER BY source, ord
	`
)

// BucketSummary counts the content of one retrieval bucket.
type BucketSummary struct {
	Retrieval   int            `json:"retrieval"`
	Questions   int            `json:"questions"`
	Predictions map[string]int `json:"predictions"`
}

// DatasetSummary counts the imported dataset per bucket and source.
type DatasetSummary struct {
	Retrievals  int              `json:"retrievals"`
	Questions   int              `json:"questions"`
	Predictions map[string]int   `json:"predictions"`
	Buckets     []*BucketSummary `json:"buckets,omitempty"`
}

// QuestionInfo is a single row of the question list query.
type QuestionInfo struct {
	Retrieval   int     `json:"retrieval"`
	ID          int     `json:"id"`
	Answer      float64 `json:"answer"`
	Predictions int     `json:"predictions"`
}

// QuestionDetail is a single question with all its predictions grouped
// by source.
type QuestionDetail struct {
	Retrieval   int                  `json:"retrieval"`
	ID          int                  `json:"id"`
	Answer      float64              `json:"answer"`
	Predictions map[string][]float64 `json:"predictions"`
}

// GetDatasetSummary returns question and prediction counts per
// retrieval bucket and prediction source.
func GetDatasetSummary(db *sql.DB) (*DatasetSummary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectBucketSummarySQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query dataset summary")
	}
	defer rows.Close()

	s := &DatasetSummary{
		Predictions: make(map[string]int),
		Buckets:     make([]*BucketSummary, 0),
	}

	var bucket *BucketSummary
	for rows.Next() {
		var retrieval, questions, predictions int
		var source string
		if err := rows.Scan(&retrieval, &questions, &source, &predictions); err != nil {
			return nil, errors.Wrap(err, "failed to scan summary row")
		}

		if bucket == nil || bucket.Retrieval != retrieval {
			bucket = &BucketSummary{
				Retrieval:   retrieval,
				Questions:   questions,
				Predictions: make(map[string]int),
			}
			s.Buckets = append(s.Buckets, bucket)
			s.Retrievals++
			s.Questions += questions
		}
		bucket.Predictions[source] = predictions
		s.Predictions[source] += predictions
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate summary rows")
	}

	return s, nil
}

// ListQuestions returns the questions of one retrieval bucket, or of
// all buckets when retrieval is nil.
func ListQuestions(db *sql.DB, retrieval *int, limit int) ([]*QuestionInfo, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectQuestionListSQL, retrieval, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query questions")
	}
	defer rows.Close()

	list := make([]*QuestionInfo, 0)
	for rows.Next() {
		q := &QuestionInfo{}
		if err := rows.Scan(&q.Retrieval, &q.ID, &q.Answer, &q.Predictions); err != nil {
			return nil, errors.Wrap(err, "failed to scan question row")
		}
		list = append(list, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate question rows")
	}

	return list, nil
}

// GetQuestionDetail returns one question with its full prediction sets.
func GetQuestionDetail(db *sql.DB, retrieval, qid int) (*QuestionDetail, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	d := &QuestionDetail{
		Retrieval:   retrieval,
		ID:          qid,
		Predictions: make(map[string][]float64),
	}

	if err := db.QueryRow(selectQuestionDetailSQL, retrieval, qid).Scan(&d.Answer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Errorf("question not found: retrieval %d question %d", retrieval, qid)
		}
		return nil, errors.Wrap(err, "failed to query question")
	}

	rows, err := db.Query(selectQuestionPredictionsSQL, retrieval, qid)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query question predictions")
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var prob float64
		if err := rows.Scan(&source, &prob); err != nil {
			return nil, errors.Wrap(err, "failed to scan prediction row")
		}
		d.Predictions[source] = append(d.Predictions[source], prob)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate prediction rows")
	}

	return d, nil
}
