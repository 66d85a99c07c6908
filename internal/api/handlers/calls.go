// Package handlers exposes the conversational transport's HTTP surface: call
// lifecycle, operation dispatch, and the read-only catalog.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/assortclinic/clinic-mate/internal/agent"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

// CallsHandler handles the per-call endpoints the transport invokes.
type CallsHandler struct {
	registry *agent.Registry
	logger   *logging.Logger
}

// NewCallsHandler creates a calls handler.
func NewCallsHandler(registry *agent.Registry, logger *logging.Logger) *CallsHandler {
	return &CallsHandler{registry: registry, logger: logger}
}

// StartCallRequest optionally names the call; a missing ID gets a generated
// one.
type StartCallRequest struct {
	CallID string `json:"call_id,omitempty"`
}

// StartCallResponse returns the call's ID.
type StartCallResponse struct {
	CallID string `json:"call_id"`
}

// OperationRequest carries the arguments of one named operation. Only the
// fields the operation reads are consulted.
type OperationRequest struct {
	Name        string `json:"name,omitempty"`
	DOB         string `json:"dob,omitempty"`
	Provider    string `json:"provider,omitempty"`
	MemberID    string `json:"member_id,omitempty"`
	HasReferral bool   `json:"has_referral,omitempty"`
	Physician   string `json:"physician,omitempty"`
	Text        string `json:"text,omitempty"`
	Confirmed   bool   `json:"confirmed,omitempty"`
	Field       string `json:"field,omitempty"`
	Value       string `json:"value,omitempty"`
	Wants       bool   `json:"wants,omitempty"`
	DateTime    string `json:"date_time,omitempty"`
	ToEmail     string `json:"to_email,omitempty"`
	ToPhone     string `json:"to_phone,omitempty"`
}

// OperationResponse carries the spoken reply.
type OperationResponse struct {
	Reply string `json:"reply"`
}

// TurnRequest is one utterance delivered for the history feed.
type TurnRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// EndCallResponse carries the rendered call summary.
type EndCallResponse struct {
	Summary string `json:"summary"`
}

// StartCall handles POST /calls requests.
func (h *CallsHandler) StartCall(w http.ResponseWriter, r *http.Request) {
	var req StartCallRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error("failed to decode request", "error", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.CallID == "" {
		req.CallID = uuid.NewString()
	}
	h.registry.Start(req.CallID)
	h.logger.Info("call started", "call_id", req.CallID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(StartCallResponse{CallID: req.CallID})
}

// Operation handles POST /calls/{callID}/operations/{operation} requests,
// dispatching to the named agent operation.
func (h *CallsHandler) Operation(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	operation := chi.URLParam(r, "operation")

	a, err := h.registry.Get(callID)
	if err != nil {
		http.Error(w, "unknown call", http.StatusNotFound)
		return
	}

	var req OperationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error("failed to decode request", "error", err, "call_id", callID)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	var reply string
	switch operation {
	case "register_patient":
		reply = a.RegisterPatient(ctx, req.Name, req.DOB)
	case "collect_insurance_info":
		reply = a.CollectInsuranceInfo(ctx, req.Provider, req.MemberID)
	case "collect_referral_info":
		reply = a.CollectReferralInfo(ctx, req.HasReferral, req.Physician)
	case "collect_medical_complaint":
		reply = a.CollectMedicalComplaint(ctx, req.Text)
	case "collect_address":
		reply = a.CollectAddress(ctx, req.Text)
	case "collect_phone":
		reply = a.CollectPhone(ctx, req.Text)
	case "collect_email":
		reply = a.CollectEmail(ctx, req.Text)
	case "confirm_information":
		reply = a.ConfirmInformation(ctx, req.Confirmed)
	case "update_specific_info":
		reply = a.UpdateSpecificInfo(ctx, req.Field, req.Value)
	case "check_appointment_interest":
		reply = a.CheckAppointmentInterest(ctx, req.Wants)
	case "select_specialty":
		reply = a.SelectSpecialty(ctx, req.Text)
	case "select_doctor":
		reply = a.SelectDoctor(ctx, req.Text)
	case "book_appointment":
		reply = a.BookAppointment(ctx, req.DateTime)
	case "cancel_appointment":
		reply = a.CancelAppointment(ctx)
	case "send_appointment_confirmation":
		reply = a.SendAppointmentConfirmation(ctx, req.ToEmail, req.ToPhone)
	case "get_patient_info":
		reply = a.GetPatientInfo(ctx)
	default:
		http.Error(w, "unknown operation", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OperationResponse{Reply: reply})
}

// AddTurn handles POST /calls/{callID}/turns requests.
func (h *CallsHandler) AddTurn(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	a, err := h.registry.Get(callID)
	if err != nil {
		http.Error(w, "unknown call", http.StatusNotFound)
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Role == "" || req.Text == "" {
		http.Error(w, "role and text are required", http.StatusBadRequest)
		return
	}
	a.AddTurn(r.Context(), req.Role, req.Text)
	w.WriteHeader(http.StatusNoContent)
}

// EndCall handles POST /calls/{callID}/end requests: it runs the wrap-up
// pipeline, returns the summary, and retires the call.
func (h *CallsHandler) EndCall(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	a, err := h.registry.Get(callID)
	if err != nil {
		http.Error(w, "unknown call", http.StatusNotFound)
		return
	}

	text := a.EndCall(r.Context())
	h.registry.Remove(callID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EndCallResponse{Summary: text})
}
