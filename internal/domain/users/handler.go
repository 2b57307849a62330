package users

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"dialog-backend/internal/platform/decimal"
	"dialog-backend/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, issuer auth.TokenIssuer) {
	r.Post("/register", registerHandler(svc))
	r.Post("/login", loginHandler(svc, issuer))

	r.Route("/diabetes-info", func(dr chi.Router) {
		dr.Post("/", addClinicalInfoHandler(svc))
		dr.Put("/", mergeClinicalInfoHandler(svc))
		dr.Get("/{userID}", getClinicalInfoHandler(svc))
	})

	r.Get("/users/{userID}", getUserHandler(svc))
	r.Get("/users/{userID}/export", exportUserHandler(svc))
}

type registerRequest struct {
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	ConfirmPassword    string  `json:"confirm_password"`
	Gender             string  `json:"gender"`
	Birthdate          string  `json:"birthdate"`
	CountryOfResidence string  `json:"country_of_residence"`
	EmergencyContact   string  `json:"emergency_contact"`
	Weight             float64 `json:"weight"`
	Height             float64 `json:"height"`
	Consent            bool    `json:"consent"`
}

// Campos obligatorios del registro; se reporta el primero que falte,
// como hacía el cliente original.
var registerRequired = []string{
	"first_name", "last_name", "email", "password", "confirm_password",
	"gender", "birthdate", "country_of_residence", "emergency_contact",
	"weight", "height", "consent",
}

// registerHandler godoc
// @Summary Registrar paciente
// @Description Crea la cuenta del paciente con el perfil clínico vacío. Valida campos obligatorios, confirmación de contraseña y consentimiento.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /register [post]
func registerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		for _, f := range registerRequired {
			if _, ok := raw[f]; !ok {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Missing required field: %s", f))
				return
			}
		}

		var req registerRequest
		if err := unmarshalFields(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if req.Password != req.ConfirmPassword {
			writeError(w, http.StatusBadRequest, "Passwords do not match.")
			return
		}
		if !req.Consent {
			writeError(w, http.StatusBadRequest, "User must agree to terms and conditions.")
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			FirstName:          req.FirstName,
			LastName:           req.LastName,
			Email:              req.Email,
			Password:           req.Password,
			Gender:             req.Gender,
			Birthdate:          req.Birthdate,
			CountryOfResidence: req.CountryOfResidence,
			EmergencyContact:   req.EmergencyContact,
			Weight:             req.Weight,
			Height:             req.Height,
			Consent:            req.Consent,
		})
		if err != nil {
			if errors.Is(err, ErrEmailInUse) {
				writeError(w, http.StatusBadRequest, "Email already in use.")
				return
			}
			if errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "An error occurred during registration.")
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "User registered successfully!",
			"userid":  u.ID,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginHandler godoc
// @Summary Login
// @Description Autentica por email y contraseña y emite un token de acceso.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /login [post]
func loginHandler(svc *Service, issuer auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Email and password required.")
			return
		}

		u, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "Invalid credentials.")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		token, err := issuer.Issue(r.Context(), auth.Claims{UserID: u.ID, Email: u.Email})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message":      "Login successful",
			"access_token": token,
		})
	}
}

// addClinicalInfoHandler godoc
// @Summary Cargar perfil clínico (modo full-set)
// @Description Setea todo campo clínico presente en el request (null presente = limpiar; campo ausente = no tocar). El owner debe existir.
// @Tags profile
// @Accept json
// @Produce json
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /diabetes-info [post]
func addClinicalInfoHandler(svc *Service) http.HandlerFunc {
	return clinicalUpdateHandler(svc, FullSet, http.StatusCreated, "Diabetes information added successfully!")
}

// mergeClinicalInfoHandler godoc
// @Summary Actualizar perfil clínico (modo merge)
// @Description Setea solo los campos presentes con valor no nulo; lo omitido conserva su valor.
// @Tags profile
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /diabetes-info [put]
func mergeClinicalInfoHandler(svc *Service) http.HandlerFunc {
	return clinicalUpdateHandler(svc, MergeProvided, http.StatusOK, "Diabetes information updated successfully!")
}

func clinicalUpdateHandler(svc *Service, mode UpdateMode, okStatus int, okMessage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		var ownerID string
		if v, ok := raw["userid"]; ok {
			_ = json.Unmarshal(v, &ownerID)
		}
		if ownerID == "" {
			writeError(w, http.StatusBadRequest, "User ID is required")
			return
		}

		fields, err := parseClinicalFields(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := svc.UpdateClinicalInfo(r.Context(), ownerID, fields, mode); err != nil {
			switch {
			case errors.Is(err, ErrOwnerNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			case errors.Is(err, ErrNoFieldsProvided):
				writeError(w, http.StatusBadRequest, "No valid fields provided for update")
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		writeJSON(w, okStatus, map[string]string{"message": okMessage})
	}
}

// parseClinicalFields tipa el payload: presencia se distingue de null
// (full-set los trata distinto), los umbrales aceptan número JSON o
// string numérico, el resto debe ser texto.
func parseClinicalFields(raw map[string]json.RawMessage) (map[string]any, error) {
	out := make(map[string]any)

	for _, f := range clinicalSchema {
		rv, ok := raw[f]
		if !ok {
			continue
		}
		if isJSONNull(rv) {
			out[f] = nil
			continue
		}

		switch f {
		case "lower_bound", "upper_bound":
			var n json.Number
			if err := json.Unmarshal(rv, &n); err == nil {
				d, err := decimal.New(n.String())
				if err != nil {
					return nil, fmt.Errorf("%s must be numeric", f)
				}
				out[f] = d
				continue
			}
			var s string
			if err := json.Unmarshal(rv, &s); err != nil {
				return nil, fmt.Errorf("%s must be numeric", f)
			}
			d, err := decimal.New(s)
			if err != nil {
				return nil, fmt.Errorf("%s must be numeric", f)
			}
			out[f] = d
		default:
			var s string
			if err := json.Unmarshal(rv, &s); err != nil {
				return nil, fmt.Errorf("%s must be a string", f)
			}
			out[f] = s
		}
	}

	return out, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

type clinicalInfoResponse struct {
	DiabetesType *string          `json:"diabetes_type"`
	DiagnoseDate *string          `json:"diagnose_date"`
	InsulinType  *string          `json:"insulin_type"`
	AdminRoute   *string          `json:"admin_route"`
	Condition    *string          `json:"condition"`
	Medication   *string          `json:"medication"`
	LowerBound   *decimal.Decimal `json:"lower_bound"`
	UpperBound   *decimal.Decimal `json:"upper_bound"`
	BSUnit       *string          `json:"bs_unit"`
	DoctorName   *string          `json:"doctor_name"`
	DoctorEmail  *string          `json:"doctor_email"`
}

// getClinicalInfoHandler godoc
// @Summary Leer perfil clínico
// @Tags profile
// @Produce json
// @Param userID path string true "ID del paciente"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /diabetes-info/{userID} [get]
func getClinicalInfoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		ci, err := svc.GetClinicalInfo(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrOwnerNotFound) {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"userid": userID,
			"diabetes_info": clinicalInfoResponse{
				DiabetesType: ci.DiabetesType,
				DiagnoseDate: ci.DiagnoseDate,
				InsulinType:  ci.InsulinType,
				AdminRoute:   ci.AdminRoute,
				Condition:    ci.Condition,
				Medication:   ci.Medication,
				LowerBound:   ci.LowerBound,
				UpperBound:   ci.UpperBound,
				BSUnit:       ci.BSUnit,
				DoctorName:   ci.DoctorName,
				DoctorEmail:  ci.DoctorEmail,
			},
		})
	}
}

type userResponse struct {
	UserID             string  `json:"userid"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Email              string  `json:"email"`
	Gender             string  `json:"gender"`
	Birthdate          string  `json:"birthdate"`
	CountryOfResidence string  `json:"country_of_residence"`
	Weight             float64 `json:"weight"`
	Height             float64 `json:"height"`
	Consent            bool    `json:"consent"`
}

// getUserHandler godoc
// @Summary Ver cuenta
// @Tags users
// @Produce json
// @Param userID path string true "ID del paciente"
// @Success 200 {object} userResponse
// @Failure 404 {object} map[string]string
// @Router /users/{userID} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			if errors.Is(err, ErrOwnerNotFound) {
				writeError(w, http.StatusNotFound, "User not found.")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// exportUserHandler godoc
// @Summary Exportar datos de la cuenta
// @Description Devuelve el registro de la cuenta como texto plano descargable.
// @Tags users
// @Produce plain
// @Param userID path string true "ID del paciente"
// @Success 200 {string} string
// @Failure 404 {object} map[string]string
// @Router /users/{userID}/export [get]
func exportUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			if errors.Is(err, ErrOwnerNotFound) {
				writeError(w, http.StatusNotFound, "User not found.")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := toUserResponse(u)
		var b bytes.Buffer
		fmt.Fprintf(&b, "userid: %s\n", resp.UserID)
		fmt.Fprintf(&b, "first_name: %s\n", resp.FirstName)
		fmt.Fprintf(&b, "last_name: %s\n", resp.LastName)
		fmt.Fprintf(&b, "email: %s\n", resp.Email)
		fmt.Fprintf(&b, "gender: %s\n", resp.Gender)
		fmt.Fprintf(&b, "birthdate: %s\n", resp.Birthdate)
		fmt.Fprintf(&b, "country_of_residence: %s\n", resp.CountryOfResidence)
		fmt.Fprintf(&b, "weight: %g\n", resp.Weight)
		fmt.Fprintf(&b, "height: %g\n", resp.Height)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="dialog-export.txt"`)
		w.WriteHeader(http.StatusOK)
		_, _ = b.WriteTo(w)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		UserID:             u.ID,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		Gender:             u.Gender,
		Birthdate:          u.Birthdate,
		CountryOfResidence: u.CountryOfResidence,
		Weight:             u.Weight,
		Height:             u.Height,
		Consent:            u.Consent,
	}
}

func unmarshalFields(raw map[string]json.RawMessage, dst *registerRequest) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
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
