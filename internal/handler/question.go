package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devforum/internal/service"
)

// QuestionHandler exposes the question endpoints.
//
// ROUTE MAP:
//
//	GET    /api/questions            → HandleList
//	POST   /api/questions            → HandleCreate   (auth)
//	GET    /api/questions/{id}       → HandleGet      (view-counting read)
//	PUT    /api/questions/{id}       → HandleEdit     (auth, author only)
//	DELETE /api/questions/{id}       → HandleDelete   (auth, author only)
//	GET    /api/questions/{id}/answers → answers handler
//
// The handler decodes and hands off; who may do what is decided in the
// service layer, inside the same transaction as the writes.
type QuestionHandler struct {
	questions *service.QuestionService
}

// NewQuestionHandler creates a QuestionHandler.
func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// HandleList returns a page of questions.
//
// Supported query parameters: page, pageSize, query (title filter), and
// filter (newest | frequent | unanswered).
func (h *QuestionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	questions, total, err := h.questions.List(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, Paginated{Items: questions, Total: total})
}

// HandleCreate creates a question from the request body.
func (h *QuestionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateQuestionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	question, err := h.questions.Create(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, question)
}

// HandleGet returns one question and counts the view. The viewer id is
// empty for anonymous readers; the view still counts, it just isn't
// attributed.
func (h *QuestionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	question, err := h.questions.View(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, question)
}

// HandleEdit applies a full edit (title, content, tag set) to a question.
func (h *QuestionHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	var in service.EditQuestionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.QuestionID = chi.URLParam(r, "id")

	question, err := h.questions.Edit(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, question)
}

// HandleDelete removes a question and everything hanging off it.
func (h *QuestionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.questions.Delete(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]string{"status": "deleted"})
}
