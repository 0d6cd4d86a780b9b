package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankcli/internal/exporter"
	"rankcli/internal/session"
	"rankcli/internal/validation"
)

// fakeExtractor returns canned text instead of decoding a real PDF.
type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

const resultText = "CS2023 - Data Structures\nIntake 2020\n200145A B+\n200146B A\n"

func newTestServer(t *testing.T, texts *fakeExtractor) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	maxUpload := int64(10 * 1024 * 1024)

	h := NewSessionHandler(
		session.NewStore(),
		exporter.NewStore(t.TempDir(), time.Hour, logger),
		texts,
		validation.NewFileValidator(logger, maxUpload),
		logger,
		maxUpload,
	)

	r := chi.NewRouter()
	r.Mount("/api/sessions", h.Routes())
	r.Get("/api/exports/{filename}", h.DownloadExport)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func postMultipart(t *testing.T, url, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func postJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created sessionResponse
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestSessionNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	resp, err := http.Get(srv.URL + "/api/sessions/no-such-session")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRankingWorkflow(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{text: resultText})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	// roster upload
	rosterCSV := []byte("Index,Name\n200145A,Perera\n200146B,Silva\n")
	resp := postMultipart(t, base+"/roster", "roster.csv", rosterCSV)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess sessionResponse
	decodeJSON(t, resp, &sess)
	assert.True(t, sess.RosterLoaded)
	assert.Equal(t, 2, sess.Students)

	// result document
	resp = postMultipart(t, base+"/documents", "cs2023.pdf", []byte("%PDF"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc documentResponse
	decodeJSON(t, resp, &doc)
	assert.Equal(t, "CS2023", doc.ModuleCode)
	assert.Equal(t, "Data Structures", doc.ModuleName)
	assert.Equal(t, 2, doc.RecordCount)

	// ranking blocked until weights arrive
	resp = postJSON(t, http.MethodPost, base+"/rankings", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var failure struct {
		Error struct {
			ErrorCode string   `json:"error_code"`
			Details   []string `json:"details"`
		} `json:"error"`
	}
	decodeJSON(t, resp, &failure)
	assert.Equal(t, "INCOMPLETE_WEIGHTS", failure.Error.ErrorCode)
	assert.Equal(t, []string{"CS2023"}, failure.Error.Details)

	// weights
	resp = postJSON(t, http.MethodPut, base+"/weights", map[string]float64{"CS2023": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// ranking
	resp = postJSON(t, http.MethodPost, base+"/rankings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ranked tableResponse
	decodeJSON(t, resp, &ranked)
	assert.Equal(t, []string{"Index", "Name", "CS2023_Grade", "SGPA", "Rank"}, ranked.Columns)
	require.Len(t, ranked.Rows, 2)
	assert.Equal(t, []string{"200146B", "Silva", "A", "4.000", "1"}, ranked.Rows[0])
	assert.Equal(t, []string{"200145A", "Perera", "B+", "3.300", "2"}, ranked.Rows[1])

	// export and download
	resp = postJSON(t, http.MethodPost, base+"/exports", exportRequest{Format: "csv"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var export exportResponse
	decodeJSON(t, resp, &export)
	require.NotEmpty(t, export.Filename)

	resp, err := http.Get(srv.URL + export.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "200146B,Silva,A,4.000,1")
}

func TestUploadRosterRejectsMissingIdentity(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	resp := postMultipart(t, base+"/roster", "roster.csv", []byte("Name\nPerera\n"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUploadRosterRejectsWrongExtension(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	resp := postMultipart(t, base+"/roster", "roster.pdf", []byte("%PDF"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadDocumentWithoutRoster(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{text: resultText})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	resp := postMultipart(t, base+"/documents", "cs2023.pdf", []byte("%PDF"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUploadDocumentUnparseable(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{err: errors.New("corrupt stream")})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	resp := postMultipart(t, base+"/roster", "roster.csv", []byte("Index\n200145A\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postMultipart(t, base+"/documents", "cs2023.pdf", []byte("garbage"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUploadDocumentDuplicateAndReplace(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{text: resultText})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	resp := postMultipart(t, base+"/roster", "roster.csv", []byte("Index\n200145A\n"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postMultipart(t, base+"/documents", "cs2023.pdf", []byte("%PDF"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postMultipart(t, base+"/documents", "cs2023.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postMultipart(t, base+"/documents?replace=true", "cs2023.pdf", []byte("%PDF"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc documentResponse
	decodeJSON(t, resp, &doc)
	assert.True(t, doc.Replaced)
}

func TestSetWeightsRejectsOutOfRange(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	resp := postJSON(t, http.MethodPut, base+"/weights", map[string]float64{"CS2023": 99})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateExportWithoutRoster(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	resp := postJSON(t, http.MethodPost, base+"/exports", exportRequest{Format: "csv"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDownloadExportNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})

	resp, err := http.Get(srv.URL + "/api/exports/rankings_20260101_000000_0123456789abcdef.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{})
	base := srv.URL + "/api/sessions/" + createSession(t, srv)

	req, err := http.NewRequest(http.MethodDelete, base, strings.NewReader(""))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
