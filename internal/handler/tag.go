package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devforum/internal/service"
)

// TagHandler exposes the read-only tag endpoints.
//
//	GET /api/tags                → HandleList
//	GET /api/tags/{id}           → HandleGet
//	GET /api/tags/{id}/questions → HandleListQuestions
type TagHandler struct {
	tags      *service.TagService
	questions *service.QuestionService
}

// NewTagHandler creates a TagHandler.
func NewTagHandler(tags *service.TagService, questions *service.QuestionService) *TagHandler {
	return &TagHandler{tags: tags, questions: questions}
}

func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tags, total, err := h.tags.List(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, Paginated{Items: tags, Total: total})
}

func (h *TagHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tag, err := h.tags.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, tag)
}

// HandleListQuestions returns the questions associated with a tag.
func (h *TagHandler) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, total, err := h.questions.ListByTag(r.Context(), chi.URLParam(r, "id"), listOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, Paginated{Items: questions, Total: total})
}
