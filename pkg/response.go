package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ContentType = struct {
	JSON string
	Text string
}{
	JSON: "application/json",
	Text: "text/plain",
}

// APIResponse is the envelope used by all API endpoints:
// {"status": "success", "data": ...} or {"status": "error", "message": ...}
type APIResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func WriteResponse(w http.ResponseWriter, contentType, message string, statusCode int) {
	WriteResponseBytes(w, contentType, []byte(message), statusCode)
}

func WriteResponseBytes(w http.ResponseWriter, contentType string, message []byte, statusCode int) {
	if contentType != "" {
		w.Header().Add("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)
	if _, err := w.Write(message); err != nil {
		log.Errorf("failed to write response [%s]: %s", message, err)
	}
}

func WriteResponseBytesOK(w http.ResponseWriter, contentType string, message []byte) {
	WriteResponseBytes(w, contentType, message, http.StatusOK)
}

func WriteTextResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.Text, message, http.StatusOK)
}

func WriteJSONResponseOK(w http.ResponseWriter, message string) {
	WriteResponse(w, ContentType.JSON, message, http.StatusOK)
}

func WriteAPIData(w http.ResponseWriter, data any, statusCode int) {
	respJson, err := json.Marshal(APIResponse{
		Status: "success",
		Data:   data,
	})
	if err != nil {
		log.Errorf("failed to marshal api response: %s", err)
		WriteAPIError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respJson, statusCode)
}

func WriteAPIError(w http.ResponseWriter, message string, statusCode int) {
	respJson, err := json.Marshal(APIResponse{
		Status:  "error",
		Message: message,
	})
	if err != nil {
		log.Errorf("failed to marshal api error response: %s", err)
		http.Error(w, message, statusCode)
		return
	}
	WriteResponseBytes(w, ContentType.JSON, respJson, statusCode)
}
