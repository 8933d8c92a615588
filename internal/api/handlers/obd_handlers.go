package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AsasinXReal/auto-diagnostic-app/internal/obd"
)

// ── OBD2 adapter endpoints (simulator-backed) ────────────────

// ListOBDDevices returns the discoverable adapters.
func (h *Handlers) ListOBDDevices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"devices": h.Simulator.ScanDevices(),
	})
}

type obdConnectRequest struct {
	DeviceName    string `json:"device_name"`
	DeviceAddress string `json:"device_address"`
}

// ConnectOBD opens an adapter session. The body is optional; without it
// the default adapter is used.
func (h *Handlers) ConnectOBD(w http.ResponseWriter, r *http.Request) {
	var req obdConnectRequest
	if r.Body != nil {
		// Body errors fall back to the default adapter rather than failing.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	respondJSON(w, http.StatusOK, h.Simulator.Connect(req.DeviceAddress, req.DeviceName))
}

// DisconnectOBD closes the adapter session.
func (h *Handlers) DisconnectOBD(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Simulator.Disconnect())
}

// GetOBDLiveData returns one live frame.
func (h *Handlers) GetOBDLiveData(w http.ResponseWriter, r *http.Request) {
	frame, err := h.Simulator.LiveData()
	if err != nil {
		respondOBDError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, frame)
}

// ReadOBDCodes performs a trouble-code scan.
func (h *Handlers) ReadOBDCodes(w http.ResponseWriter, r *http.Request) {
	readout, err := h.Simulator.ReadDTC()
	if err != nil {
		respondOBDError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, readout)
}

// ClearOBDCodes clears the stored trouble codes.
func (h *Handlers) ClearOBDCodes(w http.ResponseWriter, r *http.Request) {
	if err := h.Simulator.ClearDTC(); err != nil {
		respondOBDError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Stored trouble codes cleared",
	})
}

type obdCommandRequest struct {
	Command string `json:"command"`
}

// SendOBDCommand relays one raw ELM327 command.
func (h *Handlers) SendOBDCommand(w http.ResponseWriter, r *http.Request) {
	var req obdCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		respondError(w, http.StatusBadRequest, "command is required")
		return
	}

	res, err := h.Simulator.SendCommand(req.Command)
	if err != nil {
		respondOBDError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func respondOBDError(w http.ResponseWriter, err error) {
	if errors.Is(err, obd.ErrNotConnected) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}
