// Package server exposes the project store and the report engine over an
// HTTP JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hlxtech/licitacost/internal/config"
	"github.com/hlxtech/licitacost/internal/report"
	"github.com/hlxtech/licitacost/internal/store"
	"github.com/hlxtech/licitacost/pkg/output"
)

type handler struct {
	logger  *zap.Logger
	store   *store.Store
	conf    *config.Configuration
	version string
}

// NewHandler constructs the HTTP handler serving the project and report API.
func NewHandler(logger *zap.Logger, st *store.Store, conf *config.Configuration, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		conf = config.Default()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, store: st, conf: conf, version: trimmedVersion}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/config", h.handleConfigExport)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.handleListProjects)
			r.Post("/", h.handleCreateProject)

			r.Route("/{number}", func(r chi.Router) {
				r.Get("/", h.handleGetProject)
				r.Put("/", h.handleUpdateProject)
				r.Delete("/", h.handleDeleteProject)

				r.Post("/products", h.handleAddProduct)
				r.Put("/products/{id}", h.handleUpdateProduct)
				r.Delete("/products/{id}", h.handleDeleteProduct)

				r.Post("/costs", h.handleAddOtherCost)
				r.Put("/costs/{id}", h.handleUpdateOtherCost)
				r.Delete("/costs/{id}", h.handleDeleteOtherCost)

				r.Get("/report", h.handleReport)
				r.Post("/report", h.handleSaveReport)
				r.Get("/reports", h.handleListReports)
				r.Post("/report/export", h.handleExportReport)
			})
		})
	})

	return r
}

type createProjectRequest struct {
	ProjectNumber string `json:"project_number"`
	ClientName    string `json:"client_name"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// handleConfigExport serializes the effective configuration so a client can
// see which rates and margins its reports were computed with.
func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	yamlBytes, err := yaml.Marshal(h.conf)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfigExport")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), "server.handleListProjects")
		return
	}
	h.writeJSON(w, http.StatusOK, projects)
}

func (h *handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateProject"

	var payload createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	header, err := h.store.CreateProject(r.Context(), payload.ProjectNumber, payload.ClientName)
	if errors.Is(err, store.ErrDuplicateProject) {
		h.respondError(w, http.StatusConflict, err.Error(), op)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	h.logger.Info("project created",
		zap.String("op", op),
		zap.String("projectNumber", header.ProjectNumber),
	)
	h.writeJSON(w, http.StatusCreated, header)
}

func (h *handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := h.store.GetProject(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondStoreError(w, err, "server.handleGetProject")
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateProject"

	var header store.ProjectHeader
	if err := json.NewDecoder(r.Body).Decode(&header); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	number := chi.URLParam(r, "number")
	if header.ProjectNumber == "" {
		header.ProjectNumber = number
	}

	err := h.store.UpdateProject(r.Context(), number, header)
	if errors.Is(err, store.ErrDuplicateProject) {
		h.respondError(w, http.StatusConflict, err.Error(), op)
		return
	}
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}

	detail, err := h.store.GetProject(r.Context(), header.ProjectNumber)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), chi.URLParam(r, "number")); err != nil {
		h.respondStoreError(w, err, "server.handleDeleteProject")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddProduct"

	var product report.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	row, err := h.store.AddProduct(r.Context(), chi.URLParam(r, "number"), product)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, row)
}

func (h *handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateProduct"

	id, ok := h.parseItemID(w, r, op)
	if !ok {
		return
	}

	var product report.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	if err := h.store.UpdateProduct(r.Context(), chi.URLParam(r, "number"), id, product); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteProduct"

	id, ok := h.parseItemID(w, r, op)
	if !ok {
		return
	}
	if err := h.store.DeleteProduct(r.Context(), chi.URLParam(r, "number"), id); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleAddOtherCost(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAddOtherCost"

	var cost report.OtherCost
	if err := json.NewDecoder(r.Body).Decode(&cost); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	row, err := h.store.AddOtherCost(r.Context(), chi.URLParam(r, "number"), cost)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, row)
}

func (h *handler) handleUpdateOtherCost(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateOtherCost"

	id, ok := h.parseItemID(w, r, op)
	if !ok {
		return
	}

	var cost report.OtherCost
	if err := json.NewDecoder(r.Body).Decode(&cost); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	if err := h.store.UpdateOtherCost(r.Context(), chi.URLParam(r, "number"), id, cost); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleDeleteOtherCost(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteOtherCost"

	id, ok := h.parseItemID(w, r, op)
	if !ok {
		return
	}
	if err := h.store.DeleteOtherCost(r.Context(), chi.URLParam(r, "number"), id); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	rep, ok := h.compileReport(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

func (h *handler) handleSaveReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSaveReport"

	rep, ok := h.compileReport(w, r, op)
	if !ok {
		return
	}

	saved, err := h.store.SaveReport(r.Context(), rep)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.logger.Info("report saved",
		zap.String("op", op),
		zap.String("projectNumber", saved.ProjectNumber),
		zap.String("reportID", saved.ID),
	)
	h.writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListReports"

	number := chi.URLParam(r, "number")
	if _, err := h.store.GetProject(r.Context(), number); err != nil {
		h.respondStoreError(w, err, op)
		return
	}

	reports, err := h.store.ListReports(r.Context(), number)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, reports)
}

func (h *handler) handleExportReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportReport"

	rep, ok := h.compileReport(w, r, op)
	if !ok {
		return
	}

	path, err := output.WriteJSON(h.conf.Storage.ReportsDir, rep)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	h.logger.Info("report exported",
		zap.String("op", op),
		zap.String("projectNumber", rep.ProjectNumber),
		zap.String("path", path),
	)
	h.writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// compileReport loads the project and runs the engine, writing an error
// response on failure.
func (h *handler) compileReport(w http.ResponseWriter, r *http.Request, op string) (*report.Report, bool) {
	project, err := h.store.LoadProject(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return nil, false
	}

	start := time.Now()
	opts := report.NewOptions(h.conf.Table())
	opts.Margins = h.conf.Margins
	opts.DefaultSimplesRate = h.conf.Company.SimplesRate

	rep, err := report.Compile(h.logger, *project, opts)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error(), op)
		return nil, false
	}

	h.logger.Debug("report compiled",
		zap.String("op", op),
		zap.String("projectNumber", rep.ProjectNumber),
		zap.Duration("duration", time.Since(start)),
	)
	return rep, true
}

func (h *handler) parseItemID(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid item id: %v", err), op)
		return 0, false
	}
	return id, true
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrProjectNotFound), errors.Is(err, store.ErrItemNotFound):
		h.respondError(w, http.StatusNotFound, err.Error(), op)
	default:
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
