package handlers

import (
	"bytes"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestJSONWritesBody(t *testing.T) {
	h := NewHandler(Deps{Logger: zerolog.Nop()})
	rec := httptest.NewRecorder()

	h.JSON(rec, http.StatusCreated, map[string]int{"count": 2})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":2}`, rec.Body.String())
}

func TestJSONUnencodableValue(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(Deps{Logger: zerolog.New(&logs)})
	rec := httptest.NewRecorder()

	h.JSON(rec, http.StatusOK, map[string]float64{"change": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), `"level":"error"`)
	assert.Contains(t, logs.String(), "failed to encode response")
}
