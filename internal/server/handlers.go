package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"

	"github.com/nao1215/docpointer/internal/database"
	"github.com/nao1215/docpointer/internal/document"
	"github.com/nao1215/docpointer/internal/extract"
	"github.com/nao1215/docpointer/internal/pipeline"
	"github.com/nao1215/docpointer/internal/storage"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before parts spill to temporary files.
const multipartMemory int64 = 8 << 20

// defaultListLimit caps GET /api/extractions without a limit parameter.
const defaultListLimit = 50

var (
	errInternal = errors.New("internal server error")
	errTimeout  = errors.New("extraction timed out")
	errNotFound = errors.New("extraction not found")

	errInvalidLimit = errors.New("invalid limit")
)

// errorResponse is the body of every non-2xx answer: {"error": "..."}.
type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// handleHealth answers GET /health for load balancers and orchestrators.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// extractRequest is a validated POST /api/extract request.
type extractRequest struct {
	file     multipart.File
	filename string
	pointers []string
}

// parseExtractRequest validates the form before anything is stored.
func (s *Server) parseExtractRequest(r *http.Request) (*extractRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, storage.ErrTooLarge
		}
		return nil, ErrMissingFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// A part with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return nil, ErrNoSelectedFile
		}
		return nil, ErrMissingFile
	}
	if header.Filename == "" {
		_ = file.Close() //nolint:errcheck // nothing was read
		return nil, ErrNoSelectedFile
	}

	raw := r.MultipartForm.Value["pointers"]
	if len(raw) == 0 || raw[0] == "" {
		_ = file.Close() //nolint:errcheck // nothing was read
		return nil, ErrMissingPointers
	}
	pointers, err := extract.ParsePointers([]byte(raw[0]), s.cfg.MaxPointers)
	if err != nil {
		_ = file.Close() //nolint:errcheck // nothing was read
		return nil, err
	}

	return &extractRequest{file: file, filename: header.Filename, pointers: pointers}, nil
}

// handleExtract answers POST /api/extract with the wire-shape response.
//
// Design decision: the request is validated in full before the upload is
// stored, so a bad pointer list never leaves a file behind. Once the
// extract step has run, a failure to record history is logged and the
// client still gets its answer.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize+formOverhead)
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll() //nolint:errcheck // temp files only
		}
	}()

	req, err := s.parseExtractRequest(r)
	if err != nil {
		s.logger.Debug("rejected extraction request", "error", err)
		s.writeFailure(w, err)
		return
	}
	defer req.file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	job := pipeline.NewUploadJob(req.filename, req.file, req.pointers)
	if err := s.newPipeline().Execute(ctx, job); err != nil {
		if !slices.Contains(job.PerformedSteps, "extract") {
			s.writeFailure(w, err)
			return
		}
		s.logger.Warn("extraction succeeded but was not recorded",
			"document", job.Name,
			"error", err,
		)
	}

	s.logger.Info("extraction complete",
		"document", job.Name,
		"pages", job.Report.PageCount,
		"pointers", len(job.Pointers),
		"matches", job.Report.Response.MatchCount(),
		"duration", job.Report.Duration,
	)
	writeJSON(w, http.StatusOK, job.Report.Response)
}

// writeFailure maps err to a status code and a client-safe message.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status, public := classifyError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("extraction failed", "error", err)
	}
	writeError(w, status, public)
}

// classifyError returns the HTTP status for err and the error to show the
// client. Internal causes are replaced by errInternal, so file paths and
// driver messages stay in the log.
func classifyError(err error) (int, error) {
	switch {
	case errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrNoSelectedFile),
		errors.Is(err, ErrMissingPointers),
		errors.Is(err, extract.ErrTooManyPointers):
		return http.StatusBadRequest, err
	case errors.Is(err, extract.ErrInvalidPointers):
		return http.StatusBadRequest, extract.ErrInvalidPointers
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, storage.ErrTooLarge
	case errors.Is(err, document.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, document.ErrUnsupportedFormat
	case errors.Is(err, document.ErrDocumentUnreadable):
		return http.StatusUnprocessableEntity, document.ErrDocumentUnreadable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errTimeout
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// handleListExtractions answers GET /api/extractions, newest first.
// The document, sha3 and limit query parameters narrow the list.
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, ErrHistoryDisabled)
		return
	}

	query := r.URL.Query()
	opts := database.ListOptions{
		Document: query.Get("document"),
		SHA3:     query.Get("sha3"),
		Limit:    defaultListLimit,
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		opts.Limit = n
	}

	list, err := s.history.ListExtractions(r.Context(), opts)
	if err != nil {
		s.logger.Error("failed to list extractions", "error", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}
	if list == nil {
		list = []database.ExtractionMetadata{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetExtraction answers GET /api/extractions/{id} with the full
// stored report.
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, ErrHistoryDisabled)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, ErrInvalidID)
		return
	}

	report, err := s.history.GetExtraction(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to load extraction", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, errInternal)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
