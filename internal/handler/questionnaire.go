package handler

import (
	"net/http"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/questionnaire"
)

// QuestionnaireHandler serves the questionnaire the front end renders.
type QuestionnaireHandler struct {
	questions *questionnaire.Questionnaire
}

// NewQuestionnaireHandler creates a new QuestionnaireHandler. A nil
// questionnaire is served as an empty one.
func NewQuestionnaireHandler(q *questionnaire.Questionnaire) *QuestionnaireHandler {
	if q == nil {
		q = questionnaire.Empty()
	}
	return &QuestionnaireHandler{questions: q}
}

// Get handles GET /api/questions.
func (h *QuestionnaireHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.questions)
}
