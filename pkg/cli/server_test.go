package cli

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dannyallover/llm-forecasting/pkg/data"
	"github.com/dannyallover/llm-forecasting/pkg/eval"
)

func setupServerDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, data.Init(dbPath))
	db, err := data.GetDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func importServerData(t *testing.T, db *sql.DB) {
	t.Helper()
	s := &data.Snapshot{
		Answers:        [][]int{{1, 0}},
		Base:           [][][]float64{{{0.6, 0.7, 0.9}, {0.2, 0.3, 0.8}}},
		Finetuned:      [][][]float64{{{0.8}, {0.1}}},
		FinetunedOther: [][][]float64{{{0.75}, {0.3}}},
		Crowd:          [][]float64{{0.82, 0.15}},
	}
	_, err := data.ImportSnapshot(db, s)
	require.NoError(t, err)
}

func doGet(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestServer_Home(t *testing.T) {
	mux := makeRouter(setupServerDB(t))

	rr := doGet(t, mux, "/")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), name)
}

func TestServer_Summary(t *testing.T) {
	db := setupServerDB(t)
	importServerData(t, db)
	mux := makeRouter(db)

	rr := doGet(t, mux, "/data/summary")
	require.Equal(t, http.StatusOK, rr.Code)

	var s data.DatasetSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, 1, s.Retrievals)
	assert.Equal(t, 2, s.Questions)
}

func TestServer_Questions(t *testing.T) {
	db := setupServerDB(t)
	importServerData(t, db)
	mux := makeRouter(db)

	rr := doGet(t, mux, "/data/questions?r=0")
	require.Equal(t, http.StatusOK, rr.Code)

	var list []*data.QuestionInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestServer_Question(t *testing.T) {
	db := setupServerDB(t)
	importServerData(t, db)
	mux := makeRouter(db)

	rr := doGet(t, mux, "/data/question?r=0&q=1")
	require.Equal(t, http.StatusOK, rr.Code)

	var d data.QuestionDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, []float64{0.2, 0.3, 0.8}, d.Predictions[data.SourceBase])

	rr = doGet(t, mux, "/data/question?r=0&q=42")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doGet(t, mux, "/data/question")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_Scores(t *testing.T) {
	db := setupServerDB(t)

	mux := makeRouter(db)
	rr := doGet(t, mux, "/data/scores")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	importServerData(t, db)
	rr = doGet(t, mux, "/data/scores")
	require.Equal(t, http.StatusOK, rr.Code)

	var report eval.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Retrievals)
	assert.Equal(t, 2, report.Questions)
	assert.Len(t, report.Scores, 4)
}
