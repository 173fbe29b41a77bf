package httputil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/remnanthub/platform/internal/errors"
	"github.com/remnanthub/platform/pkg/logger"
)

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(io.NopCloser(strings.NewReader(`{"name":"a","extra":1}`)), &dst)
	require.Error(t, err)

	err = DecodeJSON(io.NopCloser(strings.NewReader(`{"name":"grace"}`)), &dst)
	require.NoError(t, err)
	assert.Equal(t, "grace", dst.Name)
}

func TestDecodeJSON_RejectsTrailingData(t *testing.T) {
	var dst map[string]any
	err := DecodeJSON(io.NopCloser(strings.NewReader(`{"a":1}{"b":2}`)), &dst)
	assert.Error(t, err)
}

func TestWriteErrorResponse_IncludesTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithTraceID(req.Context(), "trace-1"))
	rec := httptest.NewRecorder()

	WriteErrorResponse(rec, req, http.StatusNotFound, "not_found", "missing", map[string]any{"id": "x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "trace-1", body.Error.TraceID)
	assert.Equal(t, "x", body.Error.Details["id"])
}

func TestReadAllWithLimit(t *testing.T) {
	data, truncated, err := ReadAllWithLimit(bytes.NewReader([]byte("abcdef")), 4)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.Equal(t, "abcd", string(data))

	_, err = ReadAllStrict(bytes.NewReader([]byte("abcdef")), 4)
	assert.Error(t, err)

	data, err = ReadAllStrict(bytes.NewReader([]byte("abc")), 4)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestWriteError_MapsServiceErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.Conflict("already a member"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "already a member", body.Error.Message)

	rec = httptest.NewRecorder()
	WriteError(rec, nil, io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "unexpected EOF")
}
