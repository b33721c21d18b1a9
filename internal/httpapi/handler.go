// Package httpapi exposes the retrieval engine and quiz generator over a
// small JSON REST API.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"quizrag/internal/domain"
	"quizrag/internal/extractor"
	"quizrag/internal/logger"
	"quizrag/internal/metrics"
	"quizrag/internal/quiz"
)

// QuizGenerator is the handler-facing subset of the quiz generator. It is
// nil when no API key is configured; quiz endpoints then degrade instead of
// failing the whole server.
type QuizGenerator interface {
	Generate(ctx context.Context, req quiz.Request) (*quiz.Quiz, error)
}

// Config carries the handler's operational settings.
type Config struct {
	UploadDir         string
	MaxUploadBytes    int64
	AllowedExtensions []string
	TopK              int
}

// Handler implements all API endpoints.
type Handler struct {
	retriever domain.Retriever
	extractor *extractor.Extractor
	generator QuizGenerator
	metrics   *metrics.Metrics
	cfg       Config
	logger    *slog.Logger
}

func New(retriever domain.Retriever, ext *extractor.Extractor, generator QuizGenerator, m *metrics.Metrics, cfg Config) *Handler {
	return &Handler{
		retriever: retriever,
		extractor: ext,
		generator: generator,
		metrics:   m,
		cfg:       cfg,
		logger:    logger.WithComponent("httpapi"),
	}
}

// Router builds the full HTTP handler with the middleware chain applied.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/options", h.Options)
	mux.HandleFunc("POST /api/upload", h.Upload)
	mux.HandleFunc("GET /api/documents", h.Documents)
	mux.HandleFunc("POST /api/documents/clear", h.ClearDocuments)
	mux.HandleFunc("POST /api/generate-quiz", h.GenerateQuiz)
	mux.HandleFunc("POST /api/search", h.Search)

	var chain http.Handler = mux
	chain = Metrics(h.metrics)(chain)
	chain = RequestLogging(chain)
	chain = RequestID(chain)
	return chain
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "quiz RAG service is running",
	})
}

// Options returns the static quiz option lists.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, quiz.AvailableOptions())
}

// Upload accepts one multipart document, extracts its text, and ingests it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file too large, maximum size is %d bytes", h.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	if !h.extensionAllowed(header.Filename) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(
			"file type not allowed, supported types: %s",
			strings.Join(h.cfg.AllowedExtensions, ", ")))
		return
	}

	fileID := randomHex(16) + "_" + filepath.Base(header.Filename)
	path := filepath.Join(h.cfg.UploadDir, fileID)
	if err := saveUpload(path, file); err != nil {
		log.Error("saving upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store uploaded file")
		return
	}

	text, err := h.extractor.Extract(path)
	if err != nil || strings.TrimSpace(text) == "" {
		os.Remove(path)
		if err != nil {
			log.Warn("text extraction failed", "file", header.Filename, "error", err)
		}
		writeError(w, http.StatusBadRequest, "could not extract text from document")
		return
	}

	// Non-blank text always chunks, so zero chunks here means the exact
	// content was ingested before.
	numChunks := h.retriever.AddDocument(text, fileID)
	if numChunks == 0 {
		h.metrics.DuplicateDocuments.Inc()
	} else {
		h.metrics.DocumentsIngested.Inc()
		h.metrics.ChunksIndexed.Add(float64(numChunks))
	}

	info, _ := os.Stat(path)
	var size int64
	if info != nil {
		size = info.Size()
	}
	log.Info("document ingested",
		"file", header.Filename,
		"file_id", fileID,
		"chunks", numChunks,
	)
	writeSuccess(w, http.StatusOK, map[string]any{
		"filename":       header.Filename,
		"file_id":        fileID,
		"text_length":    utf8.RuneCountInString(text),
		"chunks_created": numChunks,
		"file_size":      size,
	})
}

// Documents returns retrieval statistics.
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.retriever.Stats())
}

// ClearDocuments empties the retrieval engine and the upload directory.
func (h *Handler) ClearDocuments(w http.ResponseWriter, r *http.Request) {
	h.retriever.Clear()

	entries, err := os.ReadDir(h.cfg.UploadDir)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				os.Remove(filepath.Join(h.cfg.UploadDir, entry.Name()))
			}
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"message": "all documents cleared"})
}

type generateQuizRequest struct {
	NumQuestions  int      `json:"num_questions"`
	Difficulty    string   `json:"difficulty"`
	QuestionTypes []string `json:"question_types"`
	Topic         string   `json:"topic"`
}

// GenerateQuiz builds context from the corpus and asks the generator for a
// quiz. A topic narrows the context through retrieval; without one the full
// corpus is used.
func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if h.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "quiz generation is not configured")
		return
	}
	if h.retriever.Stats().TotalChunks == 0 {
		writeError(w, http.StatusBadRequest, "no documents loaded, please upload a document first")
		return
	}

	var req generateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.NumQuestions < 1 {
		req.NumQuestions = 5
	}
	if req.NumQuestions > 20 {
		req.NumQuestions = 20
	}
	if req.Difficulty == "" {
		req.Difficulty = "moyen"
	}
	if len(req.QuestionTypes) == 0 {
		req.QuestionTypes = []string{"qcm"}
	}

	var docContext string
	if req.Topic != "" {
		ctx, err := h.retriever.GetRelevantContext(req.Topic, h.cfg.TopK)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		docContext = ctx
	} else {
		docContext = h.retriever.GetFullContext()
	}

	generated, err := h.generator.Generate(r.Context(), quiz.Request{
		Context:       docContext,
		NumQuestions:  req.NumQuestions,
		Difficulty:    req.Difficulty,
		QuestionTypes: req.QuestionTypes,
	})
	if err != nil {
		h.metrics.QuizGenerationsTotal.WithLabelValues("error").Inc()
		log.Error("quiz generation failed", "error", err)
		writeError(w, http.StatusBadGateway, fmt.Sprintf("error generating quiz: %v", err))
		return
	}
	if err := generated.Validate(); err != nil {
		h.metrics.QuizGenerationsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadGateway, "model returned an empty quiz")
		return
	}
	h.metrics.QuizGenerationsTotal.WithLabelValues("ok").Inc()
	writeSuccess(w, http.StatusOK, generated)
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// Search runs a raw relevance query against the index, for debugging and
// API consumers that want scored chunks rather than a context string.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK == 0 {
		req.TopK = 5
	}

	results, err := h.retriever.Search(req.Query, req.TopK)
	if err != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues("ok").Inc()
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
	})
}

func (h *Handler) extensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range h.cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func saveUpload(path string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

func randomHex(n int) string {
	buf := make([]byte, n/2)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
