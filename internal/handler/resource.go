package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/smartstudy/smartstudy/internal/ctxkeys"
	"github.com/smartstudy/smartstudy/internal/respond"
	"github.com/smartstudy/smartstudy/internal/service"
	"github.com/smartstudy/smartstudy/internal/validation"
)

type ResourceHandler struct {
	resourceService *service.ResourceService
}

func NewResourceHandler(resourceService *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// Create handles POST /api/resources (multipart: title, description, subject, file)
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	file, err := readFormFile(w, r, "file", validation.PDFConstraints.MaxSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resource, err := h.resourceService.Create(r.Context(), ctxkeys.UserID(r.Context()), service.CreateResourceInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Subject:     r.FormValue("subject"),
		File:        file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, resource)
}

// List handles GET /api/resources
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, resources)
}

// Saved handles GET /api/resources/saved
func (h *ResourceHandler) Saved(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceService.Saved(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, resources)
}

// ToggleLike handles PUT /api/resources/like/{id}
func (h *ResourceHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	likes, err := h.resourceService.ToggleLike(r.Context(), r.PathValue("id"), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, likes)
}

// Download handles GET /api/resources/download/{id}
func (h *ResourceHandler) Download(w http.ResponseWriter, r *http.Request) {
	resource, body, info, err := h.resourceService.Download(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": resource.OriginalFileName,
	}))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}

	n, err := io.Copy(w, body)
	if err != nil {
		slog.Warn("download interrupted", "resource_id", resource.ID, "written", n, "error", err)
	}
}
