package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rankcli/internal/config"
	apierrors "rankcli/internal/errors"
	"rankcli/internal/extractor"
	"rankcli/internal/exporter"
	"rankcli/internal/metrics"
	"rankcli/internal/ranking"
	"rankcli/internal/roster"
	"rankcli/internal/session"
	"rankcli/internal/validation"
	"rankcli/pkg/contracts/domain"
)

// sessionCtxKey carries the resolved session through the request context.
type sessionCtxKey struct{}

// SessionHandler handles the session-scoped ranking workflow.
type SessionHandler struct {
	sessions  *session.Store
	exports   *exporter.Store
	texts     extractor.TextExtractor
	validator *validation.FileValidator
	logger    *slog.Logger
	maxUpload int64
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(
	sessions *session.Store,
	exports *exporter.Store,
	texts extractor.TextExtractor,
	validator *validation.FileValidator,
	logger *slog.Logger,
	maxUpload int64,
) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		exports:   exports,
		texts:     texts,
		validator: validator,
		logger:    logger.With(slog.String("component", "session_handler")),
		maxUpload: maxUpload,
	}
}

// Routes returns the session routes.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/roster", h.UploadRoster)
		r.Post("/documents", h.UploadDocument)
		r.Put("/weights", h.SetWeights)
		r.Post("/rankings", h.ComputeRankings)
		r.Post("/exports", h.CreateExport)
	})

	return r
}

// SessionCtx resolves the session id parameter and loads the session.
func (h *SessionHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			apierrors.WriteError(w, apierrors.ErrSessionNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, s)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(sessionCtxKey{}).(*session.Session)
}

// sessionResponse is the JSON view of a session's state.
type sessionResponse struct {
	ID           string                `json:"id"`
	CreatedAt    string                `json:"created_at"`
	RosterLoaded bool                  `json:"roster_loaded"`
	Students     int                   `json:"students"`
	Modules      []string              `json:"modules"`
	Weights      domain.WeightMap      `json:"weights"`
	History      []domain.UploadRecord `json:"history"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Weights:   s.Weights(),
		History:   s.History(),
	}
	if t := s.Roster(); t != nil {
		resp.RosterLoaded = true
		resp.Students = t.Len()
		resp.Modules = t.Modules()
	}
	return resp
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.logger.InfoContext(r.Context(), "session created", slog.String("session_id", s.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newSessionResponse(s))
}

// GetSession handles GET /sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, newSessionResponse(sessionFrom(r)))
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	h.sessions.Delete(s.ID)
	render.NoContent(w, r)
}

// UploadRoster handles POST /sessions/{sessionID}/roster. The roster file
// replaces any previously loaded roster wholesale; a file that fails
// validation leaves the session untouched.
func (h *SessionHandler) UploadRoster(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := h.readUpload(w, r, config.AllowedRosterExtensions)
	if !ok {
		return
	}

	table, err := roster.Load(data, filename)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrMissingIdentityColumn):
			apierrors.WriteError(w, apierrors.ErrMissingIdentityColumn)
		case errors.Is(err, roster.ErrDuplicateIndex):
			apierrors.WriteError(w, apierrors.NewWithDetails(http.StatusUnprocessableEntity,
				"DUPLICATE_INDEX", "Roster contains duplicate Index values", err.Error()))
		default:
			apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		}
		return
	}

	s := sessionFrom(r)
	s.SetRoster(table)
	metrics.RostersLoaded.Inc()

	h.logger.InfoContext(r.Context(), "roster loaded",
		slog.String("session_id", s.ID),
		slog.String("filename", filename),
		slog.Int("students", table.Len()))

	render.JSON(w, r, newSessionResponse(s))
}

// documentResponse reports one processed result document.
type documentResponse struct {
	ModuleCode  string `json:"module_code"`
	ModuleName  string `json:"module_name"`
	RecordCount int    `json:"record_count"`
	Replaced    bool   `json:"replaced"`
}

// UploadDocument handles POST /sessions/{sessionID}/documents. Pass
// ?replace=true to overwrite a previously merged module's column.
func (h *SessionHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := h.readUpload(w, r, config.AllowedResultExtensions)
	if !ok {
		return
	}
	replace := r.URL.Query().Get("replace") == "true"

	text, err := h.texts.ExtractText(r.Context(), data)
	if err != nil {
		metrics.DocumentsProcessed.WithLabelValues("unparseable").Inc()
		apierrors.WriteError(w, apierrors.UnparseableDocumentError(err))
		return
	}

	desc, records, err := extractor.Extract(text)
	if err != nil {
		metrics.DocumentsProcessed.WithLabelValues("unparseable").Inc()
		apierrors.WriteError(w, apierrors.UnparseableDocumentError(err))
		return
	}

	s := sessionFrom(r)
	if err := s.ApplyDocument(desc, records, replace); err != nil {
		switch {
		case errors.Is(err, session.ErrNoRoster):
			apierrors.WriteError(w, apierrors.ErrRosterNotLoaded)
		case errors.Is(err, roster.ErrDuplicateModule):
			apierrors.WriteError(w, apierrors.ErrDuplicateModule)
		default:
			apierrors.WriteError(w, apierrors.ErrInternalServer)
		}
		return
	}

	outcome := "merged"
	if replace {
		outcome = "replaced"
	}
	metrics.DocumentsProcessed.WithLabelValues(outcome).Inc()

	h.logger.InfoContext(r.Context(), "result document merged",
		slog.String("session_id", s.ID),
		slog.String("filename", filename),
		slog.String("module_code", desc.Code),
		slog.Int("records", len(records)))

	render.JSON(w, r, documentResponse{
		ModuleCode:  desc.Code,
		ModuleName:  desc.Name,
		RecordCount: len(records),
		Replaced:    replace && len(records) > 0,
	})
}

// SetWeights handles PUT /sessions/{sessionID}/weights. Entries merge
// into the session's weight map so weights can arrive incrementally.
func (h *SessionHandler) SetWeights(w http.ResponseWriter, r *http.Request) {
	var weights domain.WeightMap
	if err := json.NewDecoder(r.Body).Decode(&weights); err != nil {
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}

	s := sessionFrom(r)
	if err := s.SetWeights(weights); err != nil {
		apierrors.WriteError(w, apierrors.ErrValidation("weights", err.Error()))
		return
	}

	render.JSON(w, r, newSessionResponse(s))
}

// tableResponse is the JSON view of a ranked roster.
type tableResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func newTableResponse(t *roster.Table) tableResponse {
	rows := make([][]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		rows[i] = t.Row(i)
	}
	return tableResponse{Columns: t.Columns(), Rows: rows}
}

// ComputeRankings handles POST /sessions/{sessionID}/rankings.
func (h *SessionHandler) ComputeRankings(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	ranked, err := s.ComputeRanking()
	if err != nil {
		var incomplete *ranking.IncompleteWeightsError
		switch {
		case errors.Is(err, session.ErrNoRoster):
			apierrors.WriteError(w, apierrors.ErrRosterNotLoaded)
		case errors.As(err, &incomplete):
			apierrors.WriteError(w, apierrors.IncompleteWeightsError(incomplete.Missing))
		default:
			apierrors.WriteError(w, apierrors.ErrValidation("weights", err.Error()))
		}
		return
	}

	metrics.RankingsComputed.Inc()
	h.logger.InfoContext(r.Context(), "ranking computed",
		slog.String("session_id", s.ID),
		slog.Int("students", ranked.Len()))

	render.JSON(w, r, newTableResponse(ranked))
}

// exportRequest selects the export format.
type exportRequest struct {
	Format string `json:"format"`
}

// exportResponse names the generated export file.
type exportResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// CreateExport handles POST /sessions/{sessionID}/exports, writing the
// session's current table (ranked or not) to an export file.
func (h *SessionHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}

	s := sessionFrom(r)
	table := s.Roster()
	if table == nil {
		apierrors.WriteError(w, apierrors.ErrRosterNotLoaded)
		return
	}

	filename, err := h.exports.Save(table, req.Format)
	if err != nil {
		apierrors.WriteError(w, apierrors.ErrValidation("format", err.Error()))
		return
	}

	metrics.ExportsGenerated.WithLabelValues(req.Format).Inc()
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, exportResponse{
		Filename: filename,
		URL:      "/api/exports/" + filename,
	})
}

// DownloadExport handles GET /exports/{filename}, outside the session
// scope since export names are unguessable and short lived.
func (h *SessionHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	path, err := h.exports.Resolve(chi.URLParam(r, "filename"))
	if err != nil {
		if errors.Is(err, exporter.ErrNotFound) {
			apierrors.WriteError(w, apierrors.ErrExportNotFound)
			return
		}
		apierrors.WriteError(w, apierrors.InvalidRequestWithError(err))
		return
	}
	http.ServeFile(w, r, path)
}

// readUpload parses the multipart "file" field, enforcing the size limit
// and extension whitelist. On failure it writes the error response and
// returns ok=false.
func (h *SessionHandler) readUpload(w http.ResponseWriter, r *http.Request, allowedExts []string) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		apierrors.WriteError(w, apierrors.ErrFileTooLarge)
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.WriteError(w, apierrors.ErrValidation("file", "file field is required"))
		return nil, "", false
	}
	defer file.Close()

	if err := h.validator.ValidateExtension(header.Filename, allowedExts); err != nil {
		apierrors.WriteError(w, apierrors.NewWithDetails(http.StatusBadRequest,
			"INVALID_FILE_TYPE", "File type is not allowed", err.Error()))
		return nil, "", false
	}
	if err := h.validator.ValidateSize(header.Size); err != nil {
		apierrors.WriteError(w, apierrors.ErrFileTooLarge)
		return nil, "", false
	}

	data, err := readAll(file)
	if err != nil {
		apierrors.WriteError(w, apierrors.FileSystemError("upload read", err))
		return nil, "", false
	}
	return data, header.Filename, true
}

func readAll(f multipart.File) ([]byte, error) {
	return io.ReadAll(f)
}
