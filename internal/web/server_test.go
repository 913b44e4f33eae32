package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fec/internal/config"
	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/fecfile"
)

func rec(fields ...string) string {
	return strings.Join(fields, string(fecfile.Delimiter))
}

var testFiling = strings.Join([]string{
	rec("HDR", "FEC", "8.4", "FECFile", "8"),
	rec("F3", "C00101766", "Friends of Kellner", "", "1 Main St", "", "Houston", "TX", "77024",
		"TX", "07", "Q1", "", "", "", "20000101", "20000331"),
	rec("SA11AI", "C00101766", "SA.1"),
	rec("SA11AI", "C00101766", "SA.2"),
	rec("SB17", "C00101766", "SB.1"),
}, "\n") + "\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, limiter *core.ParseLimiter, maxSize int64) *Server {
	t.Helper()
	parser, err := fecfile.NewParser(nil)
	require.NoError(t, err)
	return NewServer(core.NewService(parser, limiter, maxSize), cfg)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer(t, testConfig(), core.NewParseLimiter(2, time.Second), 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/filings?id=13360", strings.NewReader(testFiling))
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var rep core.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rep))
	assert.Equal(t, "13360", rep.FilingID)
	assert.Equal(t, "C00101766", rep.Cover.FilerID)
	assert.Equal(t, "April Quarterly", rep.ReportLabel)
	assert.Equal(t, 3, rep.TotalRows)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, core.RowStat{RowType: "SA11AI", Count: 2, Bytes: rep.Rows[0].Bytes}, rep.Rows[0])
}

func TestHandleInspect_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		maxSize int64
		status  int
		code    string
	}{
		{"not a filing", "hello\n", 0, http.StatusUnprocessableEntity, "FEC002"},
		{"empty", "", 0, http.StatusUnprocessableEntity, "FEC001"},
		{"old version", rec("HDR", "FEC", "6.1", "x", "y") + "\n", 0, http.StatusUnprocessableEntity, "FEC003"},
		{"too large", testFiling, 10, http.StatusRequestEntityTooLarge, "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testConfig(), nil, tt.maxSize)
			rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/filings", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestHandleInspect_Busy(t *testing.T) {
	limiter := core.NewParseLimiter(1, 10*time.Millisecond)
	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	s := newTestServer(t, testConfig(), limiter, 0)
	rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/filings", strings.NewReader(testFiling)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "PRS001", decodeError(t, rec).Code)
}

func multipartUpload(t *testing.T, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/filings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleInspectPage(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, 1<<20)
	rec := serve(s, multipartUpload(t, "13360.fec", testFiling))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, "Filing 13360")
	assert.Contains(t, body, "Friends of Kellner")
	assert.Contains(t, body, "April Quarterly")
	assert.Contains(t, body, "SA11AI")
}

func TestHandleInspectPage_Escapes(t *testing.T) {
	filing := strings.Replace(testFiling, "Friends of Kellner", "<script>x</script>", 1)
	s := newTestServer(t, testConfig(), nil, 0)
	rec := serve(s, multipartUpload(t, "1.fec", filing))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestHandleInspectPage_NoFile(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, 0)
	rec := serve(s, multipartUpload(t, "", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "FILE002")
}

func TestHandleIndex(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, 100<<20)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/filings"`)
	assert.Contains(t, rec.Body.String(), "105 MB")
}

func TestHandleReportCode(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, 0)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/report-codes/q1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"Q1","label":"April Quarterly"}`, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/report-codes/ZZ", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, testConfig(), core.NewParseLimiter(3, time.Second), 0)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active":0,"available":3,"max_concurrent":3}`, rec.Body.String())
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, cfg, nil, 0)

	tests := []struct {
		key    string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusForbidden},
		{"secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/report-codes/Q1", nil)
		if tt.key != "" {
			req.Header.Set("X-API-Key", tt.key)
		}
		assert.Equal(t, tt.status, serve(s, req).Code, "key %q", tt.key)
	}

	// Pages are not behind the API key.
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestFilingIDFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/filings?id=42", nil)
	assert.Equal(t, "42", filingIDFor(r, "13360.fec"))

	r = httptest.NewRequest(http.MethodPost, "/filings", nil)
	assert.Equal(t, "13360", filingIDFor(r, "13360.fec"))
	assert.True(t, strings.HasPrefix(filingIDFor(r, ""), "upload-"))
}
