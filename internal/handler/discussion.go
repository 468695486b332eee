package handler

import (
	"net/http"

	"github.com/smartstudy/smartstudy/internal/ctxkeys"
	"github.com/smartstudy/smartstudy/internal/respond"
	"github.com/smartstudy/smartstudy/internal/service"
)

type DiscussionHandler struct {
	discussionService *service.DiscussionService
}

func NewDiscussionHandler(discussionService *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussionService: discussionService}
}

type answerRequest struct {
	Text string `json:"text"`
}

func (h *DiscussionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateDiscussionInput
	if !decodeJSON(w, r, &in) {
		return
	}

	discussion, err := h.discussionService.Create(r.Context(), ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, discussion)
}

func (h *DiscussionHandler) List(w http.ResponseWriter, r *http.Request) {
	discussions, err := h.discussionService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, discussions)
}

func (h *DiscussionHandler) Get(w http.ResponseWriter, r *http.Request) {
	discussion, err := h.discussionService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, discussion)
}

func (h *DiscussionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var in answerRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	answers, err := h.discussionService.AddAnswer(r.Context(), r.PathValue("id"), ctxkeys.UserID(r.Context()), in.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respond.OK(w, answers)
}
