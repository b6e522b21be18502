package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "opsdash/internal/errors"
	"opsdash/internal/middleware"
	"opsdash/internal/services"
	"opsdash/internal/session"
	api "opsdash/pkg/contracts/api/v1"
)

// AwaitingInputMessage is shown when there is no dataset to render.
const AwaitingInputMessage = "Please upload a CSV file to view the dashboard."

// uploadField is the multipart field carrying the dataset file
const uploadField = "file"

// DashboardHandler serves dataset loading, the dashboard view and exports
type DashboardHandler struct {
	service        DashboardServiceInterface
	cookies        SessionCookies
	validation     *middleware.ValidationMiddleware
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler with RFC 7807 error handling
func NewDashboardHandler(
	service DashboardServiceInterface,
	cookies SessionCookies,
	validation *middleware.ValidationMiddleware,
	maxUploadBytes int64,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		cookies:        cookies,
		validation:     validation,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dashboard_handler")),
		errorHandler:   errorHandler,
	}
}

// RegisterRoutes adds the dashboard routes to r, which is mounted under /api
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(h.cookies.SessionCtx)

		r.Route("/dataset", func(r chi.Router) {
			r.With(
				middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
				middleware.AuditLog(h.logger, h.cookies.Name),
			).Post("/", h.UploadDataset)
			r.With(h.validation.ValidateJSONBody).Post("/sample", h.LoadSample)
			r.Get("/departments", h.GetDepartments)
		})

		r.Get("/dashboard", h.GetDashboard)

		r.With(middleware.AuditLog(h.logger, h.cookies.Name)).Get("/export/{format}", h.Export)

		r.With(middleware.AuditLog(h.logger, h.cookies.Name)).Delete("/session", h.EndSession)
	})
}

// datasetResponse summarizes a freshly loaded dataset
type datasetResponse struct {
	Source   session.Source `json:"source"`
	Filename string         `json:"filename,omitempty"`
	Rows     int            `json:"rows"`
	LoadedAt time.Time      `json:"loaded_at"`
}

func newDatasetResponse(state session.State) datasetResponse {
	return datasetResponse{
		Source:   state.Source,
		Filename: state.Filename,
		Rows:     state.Dataset.Len(),
		LoadedAt: state.LoadedAt,
	}
}

// UploadDataset handles POST /api/dataset
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.ContentLength > h.maxUploadBytes {
		h.tooLarge(w, r)
		return
	}
	body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, h.maxUploadBytes)}
	r.Body = body

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		// A cut body can surface as a malformed multipart part.
		if isTooLarge(err) || body.exceeded {
			h.tooLarge(w, r)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFile)
		return
	}
	defer file.Close()

	state, err := h.service.Load(ctx, SessionID(ctx), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "upload accepted",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   newDatasetResponse(state),
	})
}

// LoadSample handles POST /api/dataset/sample
func (h *DashboardHandler) LoadSample(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SampleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	state, err := h.service.LoadSample(ctx, SessionID(ctx), req.Seed)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   newDatasetResponse(state),
	})
}

// GetDepartments handles GET /api/dataset/departments
func (h *DashboardHandler) GetDepartments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	useSample, err := parseSampleFlag(r.URL.Query().Get("sample"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	info, err := h.service.Departments(ctx, SessionID(ctx), useSample)
	if errors.Is(err, apierrors.ErrEmptyInput) {
		h.awaitingInput(w, r)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := dashboardQueryFromRequest(r)
	if err := h.validation.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q, err := services.ParseDashboardQuery(query)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dash, err := h.service.Render(ctx, SessionID(ctx), q)
	if errors.Is(err, apierrors.ErrEmptyInput) {
		h.awaitingInput(w, r)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dash,
	})
}

// Export handles GET /api/export/{format}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := services.ParseExportFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	useSample, err := parseSampleFlag(r.URL.Query().Get("sample"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	res, err := h.service.Export(ctx, SessionID(ctx), format, useSample)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		h.logger.WarnContext(ctx, "export write failed",
			slog.String("filename", res.Filename),
			slog.String("error", err.Error()))
	}
}

// EndSession handles DELETE /api/session
func (h *DashboardHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ended := h.service.EndSession(ctx, SessionID(ctx))
	h.cookies.Clear(w)

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"ended": ended,
		},
	})
}

func (h *DashboardHandler) tooLarge(w http.ResponseWriter, r *http.Request) {
	h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
		http.StatusRequestEntityTooLarge,
		"PAYLOAD_TOO_LARGE",
		fmt.Sprintf("Upload exceeds the maximum allowed size of %d bytes", h.maxUploadBytes),
		map[string]interface{}{"max_size": h.maxUploadBytes},
	))
}

func (h *DashboardHandler) awaitingInput(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "awaiting_input",
		"message": AwaitingInputMessage,
	})
}

func dashboardQueryFromRequest(r *http.Request) api.DashboardQuery {
	q := r.URL.Query()
	return api.DashboardQuery{
		Department: strings.TrimSpace(q.Get("department")),
		Start:      q.Get("start"),
		End:        q.Get("end"),
		Sort:       q.Get("sort"),
		Order:      strings.ToLower(q.Get("order")),
		Sample:     strings.ToLower(q.Get("sample")),
	}
}

// parseSampleFlag reads the sample query flag, which defaults to true
func parseSampleFlag(s string) (bool, error) {
	if s == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apierrors.ErrValidation("sample", "sample must be true or false")
	}
	return v, nil
}

// limitedBody remembers whether the size cap was hit, even when the
// multipart reader reports a different error
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && isTooLarge(err) {
		b.exceeded = true
	}
	return n, err
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
