package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizrag/internal/extractor"
	"quizrag/internal/metrics"
	"quizrag/internal/quiz"
	"quizrag/internal/retrieval"
)

type fakeGenerator struct {
	lastRequest quiz.Request
	quiz        *quiz.Quiz
	err         error
}

func (f *fakeGenerator) Generate(_ context.Context, req quiz.Request) (*quiz.Quiz, error) {
	f.lastRequest = req
	return f.quiz, f.err
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestHandler(t *testing.T, gen QuizGenerator) (*Handler, *retrieval.Service) {
	t.Helper()
	svc, err := retrieval.NewService(200, 20)
	require.NoError(t, err)
	h := New(svc, extractor.New(), gen, metrics.New(), Config{
		UploadDir:         t.TempDir(),
		MaxUploadBytes:    1 << 20,
		AllowedExtensions: []string{".txt", ".md", ".pdf"},
		TopK:              10,
	})
	return h, svc
}

func doRequest(t *testing.T, h *Handler, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return rec, resp
}

func uploadFile(t *testing.T, h *Handler, name, content string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return doRequest(t, h, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestOptions_ListsDifficultiesAndTypes(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec, resp := doRequest(t, h, http.MethodGet, "/api/options", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	var opts quiz.Options
	require.NoError(t, json.Unmarshal(resp.Data, &opts))
	assert.Len(t, opts.Difficulties, 3)
	assert.Len(t, opts.QuestionTypes, 5)
}

func TestUpload_IngestsTextFile(t *testing.T) {
	h, svc := newTestHandler(t, nil)

	rec, resp := uploadFile(t, h, "notes.txt", "A cat sat on the mat. A dog ran across the road.")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success, "error: %s", resp.Error)

	var data struct {
		Filename      string `json:"filename"`
		FileID        string `json:"file_id"`
		TextLength    int    `json:"text_length"`
		ChunksCreated int    `json:"chunks_created"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "notes.txt", data.Filename)
	assert.True(t, strings.HasSuffix(data.FileID, "_notes.txt"))
	assert.Greater(t, data.ChunksCreated, 0)
	assert.Equal(t, 1, svc.Stats().UniqueDocuments)
}

func TestUpload_DuplicateContentReturnsZeroChunks(t *testing.T) {
	h, svc := newTestHandler(t, nil)
	content := "Same content uploaded twice. It should only index once."

	_, first := uploadFile(t, h, "a.txt", content)
	require.True(t, first.Success)

	_, second := uploadFile(t, h, "b.txt", content)
	require.True(t, second.Success)

	var data struct {
		ChunksCreated int `json:"chunks_created"`
	}
	require.NoError(t, json.Unmarshal(second.Data, &data))
	assert.Equal(t, 0, data.ChunksCreated)
	assert.Equal(t, 1, svc.Stats().UniqueDocuments)
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec, resp := uploadFile(t, h, "slides.pptx", "irrelevant")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "not allowed")
}

func TestUpload_RejectsMissingFile(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	rec, resp := doRequest(t, h, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestUpload_RejectsBlankDocument(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec, resp := uploadFile(t, h, "blank.txt", "   \n\t ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "could not extract text")
}

func TestDocuments_ReportsStats(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	uploadFile(t, h, "doc.txt", "One short document. With two sentences.")

	_, resp := doRequest(t, h, http.MethodGet, "/api/documents", nil, "")
	require.True(t, resp.Success)

	var stats struct {
		TotalChunks     int `json:"total_chunks"`
		UniqueDocuments int `json:"unique_documents"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 1, stats.UniqueDocuments)
	assert.Greater(t, stats.TotalChunks, 0)
}

func TestClearDocuments_EmptiesEngineAndUploadDir(t *testing.T) {
	h, svc := newTestHandler(t, nil)
	uploadFile(t, h, "doc.txt", "Document to be cleared soon.")
	require.Greater(t, svc.Stats().TotalChunks, 0)

	rec, resp := doRequest(t, h, http.MethodPost, "/api/documents/clear", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	assert.Equal(t, 0, svc.Stats().TotalChunks)
	assert.Equal(t, 0, svc.Stats().UniqueDocuments)

	entries, err := os.ReadDir(h.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSearch_RanksResults(t *testing.T) {
	h, svc := newTestHandler(t, nil)
	svc.AddDocument("The cat sat on the mat.", "doc-1")
	svc.AddDocument("The dog ran across the road.", "doc-2")

	body := strings.NewReader(`{"query":"cat","top_k":2}`)
	rec, resp := doRequest(t, h, http.MethodPost, "/api/search", body, "application/json")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	var data struct {
		Query   string `json:"query"`
		Results []struct {
			Text       string  `json:"text"`
			DocumentID string  `json:"document_id"`
			Score      float64 `json:"score"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "cat", data.Query)
	require.Len(t, data.Results, 2)
	assert.Equal(t, "doc-1", data.Results[0].DocumentID)
	assert.Greater(t, data.Results[0].Score, data.Results[1].Score)
}

func TestSearch_RequiresQuery(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec, resp := doRequest(t, h, http.MethodPost, "/api/search",
		strings.NewReader(`{"query":""}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "query is required")
}

func TestSearch_RejectsNegativeTopK(t *testing.T) {
	h, svc := newTestHandler(t, nil)
	svc.AddDocument("Some indexed content here.", "doc")

	rec, _ := doRequest(t, h, http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"content","top_k":-1}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateQuiz_WithoutGeneratorConfigured(t *testing.T) {
	h, svc := newTestHandler(t, nil)
	svc.AddDocument("Some content so the corpus is not empty.", "doc")

	rec, resp := doRequest(t, h, http.MethodPost, "/api/generate-quiz",
		strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, resp.Success)
}

func TestGenerateQuiz_RequiresDocuments(t *testing.T) {
	h, _ := newTestHandler(t, &fakeGenerator{})

	rec, resp := doRequest(t, h, http.MethodPost, "/api/generate-quiz",
		strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "no documents loaded")
}

func TestGenerateQuiz_UsesTopicContext(t *testing.T) {
	gen := &fakeGenerator{quiz: &quiz.Quiz{
		Title:     "Quiz",
		Questions: []quiz.Question{{ID: 1, Question: "Q?", Type: "qcm", CorrectAnswer: "A"}},
	}}
	h, svc := newTestHandler(t, gen)
	svc.AddDocument("Falcons hunt at dawn. Owls hunt at night.", "birds")
	svc.AddDocument("Trains run on rails. Planes fly above clouds.", "transport")

	body := strings.NewReader(`{"num_questions":3,"difficulty":"facile","question_types":["qcm"],"topic":"falcons"}`)
	rec, resp := doRequest(t, h, http.MethodPost, "/api/generate-quiz", body, "application/json")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success, "error: %s", resp.Error)

	assert.Equal(t, 3, gen.lastRequest.NumQuestions)
	assert.Equal(t, "facile", gen.lastRequest.Difficulty)
	assert.Contains(t, gen.lastRequest.Context, "Falcons")

	var generated quiz.Quiz
	require.NoError(t, json.Unmarshal(resp.Data, &generated))
	require.Len(t, generated.Questions, 1)
}

func TestGenerateQuiz_ClampsQuestionCount(t *testing.T) {
	gen := &fakeGenerator{quiz: &quiz.Quiz{
		Questions: []quiz.Question{{ID: 1, Question: "Q?"}},
	}}
	h, svc := newTestHandler(t, gen)
	svc.AddDocument("Enough content for a quiz.", "doc")

	doRequest(t, h, http.MethodPost, "/api/generate-quiz",
		strings.NewReader(`{"num_questions":500}`), "application/json")
	assert.Equal(t, 20, gen.lastRequest.NumQuestions)

	doRequest(t, h, http.MethodPost, "/api/generate-quiz",
		strings.NewReader(`{"num_questions":-2}`), "application/json")
	assert.Equal(t, 5, gen.lastRequest.NumQuestions)
}
