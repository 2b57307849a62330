package measurements

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"dialog-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/conditions", func(cr chi.Router) {
		cr.Post("/", addConditionsHandler(svc))
		cr.Get("/{userID}", listConditionsHandler(svc))
		cr.Put("/{userID}/{datatype}", updateConditionHandler(svc))
	})

	r.Get("/graphs", graphHandler(svc))
}

type conditionEntry struct {
	Datatype string          `json:"datatype"`
	Value    json.RawMessage `json:"value"`
	Date     string          `json:"date"` // "2006-01-02T15:04:05" o RFC3339
}

type addConditionsRequest struct {
	UserID     string           `json:"user_id"`
	Conditions []conditionEntry `json:"conditions"`
}

// addConditionsHandler godoc
// @Summary Registrar condiciones del paciente
// @Description Inserta un lote de puntos de medición {datatype, value, date}. Todo el lote se valida antes de escribir nada; la misma clave (owner, tipo, fecha) sobreescribe.
// @Tags conditions
// @Accept json
// @Produce json
// @Param payload body addConditionsRequest true "Lote de condiciones"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /conditions [post]
func addConditionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addConditionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			writeError(w, http.StatusBadRequest, "User ID is required")
			return
		}
		if len(req.Conditions) == 0 {
			writeError(w, http.StatusBadRequest, "Conditions data is required and must be a list")
			return
		}

		// Validar el lote completo antes de escribir el primer punto.
		inputs := make([]UpsertInput, 0, len(req.Conditions))
		for _, c := range req.Conditions {
			v, err := ParseValue(c.Value)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid condition value")
				return
			}
			if c.Datatype == "" || v == nil || c.Date == "" {
				writeError(w, http.StatusBadRequest, "Each condition must have datatype, value, and date")
				return
			}
			if _, err := EncodeKey(req.UserID, c.Datatype); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid user_id or datatype")
				return
			}

			ts, err := ParseTimestamp(c.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid date format")
				return
			}

			inputs = append(inputs, UpsertInput{
				Owner:     req.UserID,
				Type:      c.Datatype,
				Timestamp: ts,
				Value:     v,
			})
		}

		for _, in := range inputs {
			if _, err := svc.Upsert(r.Context(), in); err != nil {
				if errors.Is(err, ErrInvalidMeasurement) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				writeError(w, http.StatusServiceUnavailable, "Failed to insert data")
				return
			}
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "User conditions saved successfully!",
			"user_id": req.UserID,
		})
	}
}

type conditionResponse struct {
	Datatype string    `json:"datatype"`
	Date     time.Time `json:"date"`
	Value    any       `json:"value"`
}

// listConditionsHandler godoc
// @Summary Listar todo lo registrado de un paciente
// @Description Devuelve todos los puntos del owner, de todos los tipos; ordenado por fecha dentro de cada tipo.
// @Tags conditions
// @Produce json
// @Param userID path string true "ID del paciente"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /conditions/{userID} [get]
func listConditionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		pts, err := svc.ScanByOwner(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrInvalidMeasurement) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		if len(pts) == 0 {
			writeError(w, http.StatusNotFound, "No data found for the specified user ID")
			return
		}

		out := make([]conditionResponse, 0, len(pts))
		for _, p := range pts {
			out = append(out, conditionResponse{
				Datatype: p.Type,
				Date:     p.Timestamp,
				Value:    p.Value,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":    userID,
			"conditions": out,
		})
	}
}

type updateConditionRequest struct {
	Value   json.RawMessage `json:"value"`
	Date    string          `json:"date"`
	NewDate string          `json:"new_date"` // opcional: mueve el punto
}

// updateConditionHandler godoc
// @Summary Actualizar una condición existente
// @Description Reemplaza el value del punto en (userID, datatype, date). new_date re-clava el punto (cambia la clave de rango). 404 si no existe un punto en esa clave exacta.
// @Tags conditions
// @Accept json
// @Produce json
// @Param userID path string true "ID del paciente"
// @Param datatype path string true "Tipo de medición"
// @Param payload body updateConditionRequest true "Nuevo valor (y fecha opcional)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /conditions/{userID}/{datatype} [put]
func updateConditionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		datatype := chi.URLParam(r, "datatype")

		var req updateConditionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		v, err := ParseValue(req.Value)
		if err != nil || v == nil || req.Date == "" {
			writeError(w, http.StatusBadRequest, "Condition data (value and date) is required")
			return
		}

		ts, err := ParseTimestamp(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format")
			return
		}

		var newTS *time.Time
		if req.NewDate != "" {
			t, err := ParseTimestamp(req.NewDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid date format")
				return
			}
			newTS = &t
		}

		p, err := svc.Update(r.Context(), userID, datatype, ts, v, newTS)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, "Condition not found for the given user_id and datatype")
			case errors.Is(err, ErrInvalidMeasurement):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "User condition data updated successfully!",
			"updated_data": conditionResponse{
				Datatype: p.Type,
				Date:     p.Timestamp,
				Value:    p.Value,
			},
		})
	}
}

// graphHandler godoc
// @Summary Serie para graficar
// @Description Reconstruye la serie ordenada del tipo pedido para el usuario autenticado. Valores de texto numéricos salen coercidos a número. Rango vacío devuelve data vacía, no error.
// @Tags graphs
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param type query string true "Tipo de medición (ej. bloodSugar)"
// @Param start_datetime query string true "Límite inferior inclusivo (fecha o fecha-hora)"
// @Param end_datetime query string true "Límite superior inclusivo"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /graphs [get]
func graphHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		datatype := strings.TrimSpace(r.URL.Query().Get("type"))
		startRaw := strings.TrimSpace(r.URL.Query().Get("start_datetime"))
		endRaw := strings.TrimSpace(r.URL.Query().Get("end_datetime"))

		if datatype == "" || startRaw == "" || endRaw == "" {
			writeError(w, http.StatusBadRequest, "Missing required parameters")
			return
		}

		from, err := ParseRangeBound(startRaw, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing required parameters")
			return
		}
		to, err := ParseRangeBound(endRaw, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing required parameters")
			return
		}

		series, err := svc.BuildSeries(r.Context(), claims.UserID, datatype, &from, &to)
		if err != nil {
			switch {
			case errors.Is(err, ErrMissingParameters):
				writeError(w, http.StatusBadRequest, "Missing required parameters")
			case errors.Is(err, ErrQueryFailed):
				writeError(w, http.StatusInternalServerError, "Failed to query data")
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"data": series})
	}
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
