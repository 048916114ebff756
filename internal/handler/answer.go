package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devforum/internal/service"
)

// AnswerHandler exposes the answer endpoints.
//
//	GET    /api/questions/{id}/answers → HandleListByQuestion
//	POST   /api/answers                → HandleCreate (auth)
//	DELETE /api/answers/{id}           → HandleDelete (auth, author only)
type AnswerHandler struct {
	answers *service.AnswerService
}

// NewAnswerHandler creates an AnswerHandler.
func NewAnswerHandler(answers *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// HandleCreate posts an answer to a question.
func (h *AnswerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAnswerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	answer, err := h.answers.Create(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, answer)
}

// HandleCreateForQuestion posts an answer to the question named in the URL;
// the body carries only the content.
func (h *AnswerHandler) HandleCreateForQuestion(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAnswerInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.QuestionID = chi.URLParam(r, "id")

	answer, err := h.answers.Create(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, answer)
}

// HandleDelete removes an answer.
func (h *AnswerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.answers.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]string{"status": "deleted"})
}

// HandleListByQuestion returns a page of a question's answers.
func (h *AnswerHandler) HandleListByQuestion(w http.ResponseWriter, r *http.Request) {
	answers, total, err := h.answers.ListByQuestion(r.Context(), chi.URLParam(r, "id"), listOptionsFromQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, Paginated{Items: answers, Total: total})
}
