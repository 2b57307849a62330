package alerts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dialog-backend/internal/domain/measurements"
	"dialog-backend/internal/domain/users"
	"dialog-backend/internal/platform/decimal"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, measurementsSvc *measurements.Service) {
	r.Post("/questionnaire", submitQuestionnaireHandler(svc, measurementsSvc))
	r.Post("/alert-doctor", alertDoctorHandler(svc))
}

type questionnaireAnswer struct {
	QuestionID string          `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

type questionnaireRequest struct {
	UserID  string                `json:"userid"`
	Answers []questionnaireAnswer `json:"answers"`
}

// submitQuestionnaireHandler godoc
// @Summary Enviar cuestionario
// @Description Guarda cada respuesta como punto de medición tipado por question_id y manda el resumen al médico tratante.
// @Tags questionnaire
// @Accept json
// @Produce json
// @Param payload body questionnaireRequest true "Respuestas"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /questionnaire [post]
func submitQuestionnaireHandler(svc *Service, measurementsSvc *measurements.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionnaireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON format")
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			writeError(w, http.StatusBadRequest, "Missing 'userid' in request data")
			return
		}
		if len(req.Answers) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid or missing 'answers' field")
			return
		}

		// Validar todas las respuestas antes de guardar la primera.
		type parsedAnswer struct {
			questionID string
			value      any
		}
		parsed := make([]parsedAnswer, 0, len(req.Answers))
		for _, a := range req.Answers {
			v, err := measurements.ParseValue(a.Answer)
			if err != nil || v == nil || strings.TrimSpace(a.QuestionID) == "" {
				writeError(w, http.StatusBadRequest, "Invalid or missing 'answers' field")
				return
			}
			if _, err := measurements.EncodeKey(req.UserID, a.QuestionID); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid or missing 'answers' field")
				return
			}
			parsed = append(parsed, parsedAnswer{questionID: a.QuestionID, value: v})
		}

		summary := make([]Answer, 0, len(parsed))
		now := time.Now().UTC()
		for _, a := range parsed {
			if _, err := measurementsSvc.Upsert(r.Context(), measurements.UpsertInput{
				Owner:     req.UserID,
				Type:      a.questionID,
				Timestamp: now,
				Value:     a.value,
			}); err != nil {
				if errors.Is(err, measurements.ErrInvalidMeasurement) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "Failed to store questionnaire")
				return
			}
			summary = append(summary, Answer{
				QuestionID: a.questionID,
				Answer:     measurements.FormatValue(a.value),
			})
		}

		if err := svc.SendQuestionnaireSummary(r.Context(), req.UserID, summary); err != nil {
			switch {
			case errors.Is(err, users.ErrOwnerNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			case errors.Is(err, ErrContactIncomplete):
				writeError(w, http.StatusBadRequest, "User data incomplete. Unable to send alert.")
			default:
				writeError(w, http.StatusInternalServerError, "Failed to store questionnaire")
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "Questionnaire submitted successfully!",
		})
	}
}

type alertRequest struct {
	UserID          string          `json:"userid"`
	BloodSugarLevel json.RawMessage `json:"bloodSugarLevel"`
}

// alertDoctorHandler godoc
// @Summary Alertar al médico
// @Description Manda al médico tratante un correo por una lectura de glucosa insegura. La unidad sale del perfil (bs_unit).
// @Tags alerts
// @Accept json
// @Produce json
// @Param payload body alertRequest true "Lectura insegura"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /alert-doctor [post]
func alertDoctorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req alertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		missing := make([]string, 0, 2)
		if strings.TrimSpace(req.UserID) == "" {
			missing = append(missing, "userid")
		}
		if len(req.BloodSugarLevel) == 0 {
			missing = append(missing, "bloodSugarLevel")
		}
		if len(missing) > 0 {
			writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
			return
		}

		level, err := parseLevel(req.BloodSugarLevel)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bloodSugarLevel must be numeric")
			return
		}

		if err := svc.SendThresholdAlert(r.Context(), req.UserID, level); err != nil {
			switch {
			case errors.Is(err, users.ErrOwnerNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			case errors.Is(err, ErrContactIncomplete):
				writeError(w, http.StatusBadRequest, "User data incomplete. Unable to send alert.")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Alert sent to doctor successfully!",
		})
	}
}

// parseLevel acepta número JSON o string numérico, siempre a decimal
// exacto.
func parseLevel(raw json.RawMessage) (decimal.Decimal, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return decimal.New(n.String())
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.New(s)
}

// writeJSON está duplicado intencionalmente en handlers de distintos
// módulos para evitar crear helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
