package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dialog-backend/internal/adapters/auth/jwtauth"
	"dialog-backend/internal/ports/notify"
)

type captureNotifier struct {
	sent []notify.Message
}

func (n *captureNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *captureNotifier) {
	t.Helper()

	notifier := &captureNotifier{}
	jwtSvc := jwtauth.New("test-secret")

	srv := httptest.NewServer(NewRouter(Options{
		AuthVerifier: jwtSvc,
		TokenIssuer:  jwtSvc,
		Notifier:     notifier,
	}))
	t.Cleanup(srv.Close)
	return srv, notifier
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func registerAndLogin(t *testing.T, base string) (userID, token string) {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, base+"/register", "", map[string]any{
		"first_name":           "Ana",
		"last_name":            "Pérez",
		"email":                "ana@example.com",
		"password":             "secret",
		"confirm_password":     "secret",
		"gender":               "female",
		"birthdate":            "1990-04-12",
		"country_of_residence": "AR",
		"emergency_contact":    "+54 11 5555-0000",
		"weight":               62.5,
		"height":               1.68,
		"consent":              true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d body %v", resp.StatusCode, body)
	}
	userID, _ = body["userid"].(string)
	if userID == "" {
		t.Fatalf("register: no userid in %v", body)
	}

	resp, body = doJSON(t, http.MethodPost, base+"/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d body %v", resp.StatusCode, body)
	}
	token, _ = body["access_token"].(string)
	if token == "" {
		t.Fatalf("login: no access_token in %v", body)
	}
	return userID, token
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRegisterReportsFirstMissingField(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/register", "", map[string]any{
		"first_name": "Ana",
		// falta last_name y todo lo demás
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["error"] != "Missing required field: last_name" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv.URL)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestConditionsLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	userID, _ := registerAndLogin(t, srv.URL)

	// Lote de condiciones.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/conditions", "", map[string]any{
		"user_id": userID,
		"conditions": []map[string]any{
			{"datatype": "bloodSugar", "value": 120.5, "date": "2025-01-01T08:00:00"},
			{"datatype": "insulin", "value": "8", "date": "2025-01-01T09:00:00"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add: status %d body %v", resp.StatusCode, body)
	}
	if body["message"] != "User conditions saved successfully!" {
		t.Fatalf("message = %v", body["message"])
	}

	// Listar todo.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/conditions/"+userID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d body %v", resp.StatusCode, body)
	}
	conds, ok := body["conditions"].([]any)
	if !ok || len(conds) != 2 {
		t.Fatalf("conditions = %v", body["conditions"])
	}

	// Actualizar moviendo el punto a otra fecha.
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/conditions/"+userID+"/bloodSugar", "", map[string]any{
		"value":    135,
		"date":     "2025-01-01T08:00:00",
		"new_date": "2025-01-01T08:30:00",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d body %v", resp.StatusCode, body)
	}

	// La clave vieja ya no existe.
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/conditions/"+userID+"/bloodSugar", "", map[string]any{
		"value": 140,
		"date":  "2025-01-01T08:00:00",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update old key: status %d body %v", resp.StatusCode, body)
	}
	if body["error"] != "Condition not found for the given user_id and datatype" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestConditionsBatchWithBadDatatypeWritesNothing(t *testing.T) {
	srv, _ := newTestServer(t)
	userID, _ := registerAndLogin(t, srv.URL)

	// La segunda entrada lleva el separador de clave en el datatype: el
	// lote entero se rechaza antes de escribir la primera.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/conditions", "", map[string]any{
		"user_id": userID,
		"conditions": []map[string]any{
			{"datatype": "bloodSugar", "value": 120, "date": "2025-01-01T08:00:00"},
			{"datatype": "bad#type", "value": 99, "date": "2025-01-01T09:00:00"},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d body %v", resp.StatusCode, body)
	}
	if body["error"] != "Invalid user_id or datatype" {
		t.Fatalf("error = %v", body["error"])
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/conditions/"+userID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no point must persist from a rejected batch: status %d body %v", resp.StatusCode, body)
	}
}

func TestQuestionnaireWithBadQuestionIDWritesNothing(t *testing.T) {
	srv, notifier := newTestServer(t)
	userID, _ := registerAndLogin(t, srv.URL)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/questionnaire", "", map[string]any{
		"userid": userID,
		"answers": []map[string]any{
			{"question_id": "1", "answer": "sometimes"},
			{"question_id": "q#7", "answer": "never"},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d body %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/conditions/"+userID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no answer must persist from a rejected questionnaire: status %d", resp.StatusCode)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("no summary must be sent for a rejected questionnaire")
	}
}

func TestListConditionsEmptyUserIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/conditions/nobody", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["error"] != "No data found for the specified user ID" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestClinicalInfoFullSetThenMerge(t *testing.T) {
	srv, _ := newTestServer(t)
	userID, _ := registerAndLogin(t, srv.URL)

	// Full-set inicial.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/diabetes-info", "", map[string]any{
		"userid":        userID,
		"diabetes_type": "type-1",
		"medication":    "insulin",
		"lower_bound":   80,
		"upper_bound":   "180",
		"bs_unit":       "mg/dL",
		"doctor_name":   "Dr. House",
		"doctor_email":  "dr@example.com",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("full-set: status %d body %v", resp.StatusCode, body)
	}

	// Merge de un solo campo.
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/diabetes-info", "", map[string]any{
		"userid":      userID,
		"lower_bound": 90,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("merge: status %d body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/diabetes-info/"+userID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d body %v", resp.StatusCode, body)
	}
	info, ok := body["diabetes_info"].(map[string]any)
	if !ok {
		t.Fatalf("diabetes_info = %v", body["diabetes_info"])
	}
	// Los umbrales salen como número JSON.
	if got, _ := info["lower_bound"].(float64); got != 90 {
		t.Fatalf("lower_bound = %v", info["lower_bound"])
	}
	if got, _ := info["upper_bound"].(float64); got != 180 {
		t.Fatalf("upper_bound = %v", info["upper_bound"])
	}
	if info["medication"] != "insulin" {
		t.Fatalf("medication = %v", info["medication"])
	}
}

func TestClinicalInfoGhostOwnerIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/diabetes-info", "", map[string]any{
		"userid":        "ghost-id",
		"diabetes_type": "type-1",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d body %v", resp.StatusCode, body)
	}
	if body["error"] != "User not found" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestGraphsRequiresAuthAndReturnsOrderedSeries(t *testing.T) {
	srv, _ := newTestServer(t)
	userID, token := registerAndLogin(t, srv.URL)

	// Fuera de orden; valores de texto numéricos.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/conditions", "", map[string]any{
		"user_id": userID,
		"conditions": []map[string]any{
			{"datatype": "bloodSugar", "value": "135", "date": "2025-01-02T08:00:00"},
			{"datatype": "bloodSugar", "value": "120", "date": "2025-01-01T08:00:00"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add: status %d body %v", resp.StatusCode, body)
	}

	// Sin token no hay serie.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/graphs?type=bloodSugar&start_datetime=2025-01-01&end_datetime=2025-01-02", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", resp.StatusCode)
	}

	// Parámetros incompletos.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/graphs?type=bloodSugar", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing params: status %d", resp.StatusCode)
	}
	if body["error"] != "Missing required parameters" {
		t.Fatalf("error = %v", body["error"])
	}

	// Serie completa con límites de solo fecha.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/graphs?type=bloodSugar&start_datetime=2025-01-01&end_datetime=2025-01-02", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("graphs: status %d body %v", resp.StatusCode, body)
	}
	data, ok := body["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("data = %v", body["data"])
	}
	first := data[0].(map[string]any)
	second := data[1].(map[string]any)
	// Ordenado ascendente y coercido a número.
	if v, _ := first["value"].(float64); v != 120 {
		t.Fatalf("first value = %v", first["value"])
	}
	if v, _ := second["value"].(float64); v != 135 {
		t.Fatalf("second value = %v", second["value"])
	}
}

func TestQuestionnaireStoresAnswersAndNotifiesDoctor(t *testing.T) {
	srv, notifier := newTestServer(t)
	userID, _ := registerAndLogin(t, srv.URL)

	// El médico tiene que estar en el perfil para recibir el resumen.
	resp, body := doJSON(t, http.MethodPut, srv.URL+"/diabetes-info", "", map[string]any{
		"userid":       userID,
		"doctor_email": "dr@example.com",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("merge: status %d body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/questionnaire", "", map[string]any{
		"userid": userID,
		"answers": []map[string]any{
			{"question_id": "1", "answer": "sometimes"},
			{"question_id": "2", "answer": 3},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("questionnaire: status %d body %v", resp.StatusCode, body)
	}
	if body["message"] != "Questionnaire submitted successfully!" {
		t.Fatalf("message = %v", body["message"])
	}

	// Respuestas guardadas como condiciones.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/conditions/"+userID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	conds, _ := body["conditions"].([]any)
	if len(conds) != 2 {
		t.Fatalf("conditions = %v", body["conditions"])
	}

	// Y el resumen salió por correo.
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.To != "dr@example.com" {
		t.Fatalf("to = %q", msg.To)
	}
	if !strings.Contains(msg.Body, "Q1: sometimes") || !strings.Contains(msg.Body, "Q2: 3") {
		t.Fatalf("body = %q", msg.Body)
	}
}

func TestAlertDoctor(t *testing.T) {
	srv, notifier := newTestServer(t)
	userID, _ := registerAndLogin(t, srv.URL)

	// Sin perfil del médico: 400 con el mensaje de contacto incompleto.
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/alert-doctor", "", map[string]any{
		"userid":          userID,
		"bloodSugarLevel": 250,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("incomplete: status %d body %v", resp.StatusCode, body)
	}
	if body["error"] != "User data incomplete. Unable to send alert." {
		t.Fatalf("error = %v", body["error"])
	}

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/diabetes-info", "", map[string]any{
		"userid":       userID,
		"doctor_email": "dr@example.com",
		"bs_unit":      "mmol/L",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("merge: status %d body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/alert-doctor", "", map[string]any{
		"userid":          userID,
		"bloodSugarLevel": "13.9",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("alert: status %d body %v", resp.StatusCode, body)
	}
	if body["message"] != "Alert sent to doctor successfully!" {
		t.Fatalf("message = %v", body["message"])
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0].Body, "13.9 mmol/L") {
		t.Fatalf("sent = %+v", notifier.sent)
	}

	// Campos faltantes se listan por nombre.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/alert-doctor", "", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing: status %d", resp.StatusCode)
	}
	if body["error"] != "Missing required fields: userid, bloodSugarLevel" {
		t.Fatalf("error = %v", body["error"])
	}
}
