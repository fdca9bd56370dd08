package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/dcode-github/imovel_listing_system/logging"
)

const (
	msgNotFound       = "Imóvel não encontrado"
	msgDeleted        = "Imóvel excluído com sucesso"
	msgInvalidData    = "The given data was invalid."
	msgInvalidBody    = "Invalid request body"
	msgInternalServer = "Internal server error"
	msgNoRoute        = "Route not found"
	msgNoMethod       = "Method not allowed"
)

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.FromContext(r.Context()).Error("Failed to encode response", "error", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, body)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"message": msg})
}

func writeValidation(w http.ResponseWriter, r *http.Request, fe FieldErrors) {
	writeJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
		"message": msgInvalidData,
		"errors":  fe,
	})
}

func RouteNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusNotFound, msgNoRoute)
	}
}

func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusMethodNotAllowed, msgNoMethod)
	}
}
