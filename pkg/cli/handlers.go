package cli

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dannyallover/llm-forecasting/pkg/data"
	"github.com/dannyallover/llm-forecasting/pkg/eval"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func homeAPIHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    name,
		"version": version,
	})
}

func summaryAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s, err := data.GetDatasetSummary(db)
		if err != nil {
			slog.Error("failed to get dataset summary", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get dataset summary")
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func questionsAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var retrieval *int
		if v := queryParamInt(r, "r", -1); v >= 0 {
			retrieval = &v
		}
		limit := queryParamInt(r, "limit", queryResultLimitDefault)
		if limit <= 0 || limit > queryResultLimitDefault {
			limit = queryResultLimitDefault
		}

		list, err := data.ListQuestions(db, retrieval, limit)
		if err != nil {
			slog.Error("failed to list questions", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list questions")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func questionAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		retrieval := queryParamInt(r, "r", -1)
		qid := queryParamInt(r, "q", -1)
		if retrieval < 0 || qid < 0 {
			writeError(w, http.StatusBadRequest, "r and q query parameters are required")
			return
		}

		d, err := data.GetQuestionDetail(db, retrieval, qid)
		if err != nil {
			slog.Error("failed to get question", "error", err)
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func scoresAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ds, err := data.GetDataset(db)
		if err != nil {
			slog.Error("failed to load dataset", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load dataset")
			return
		}

		report, err := eval.Evaluate(ds)
		if err != nil {
			slog.Error("failed to evaluate dataset", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to evaluate dataset")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
