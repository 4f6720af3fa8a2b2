package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/httpapi"
)

// APIError is the error envelope of the logistics API.
type APIError = httpapi.ErrorEnvelope

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		panic(err)
	}
}

func ensureRequestID(w http.ResponseWriter, r *http.Request) string {
	if r == nil {
		return ""
	}
	if id, ok := composables.UseRequestID(r.Context()); ok {
		return id
	}
	requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
	}
	return requestID
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	writeAPIErrorMeta(w, r, status, code, message, nil)
}

func writeAPIErrorMeta(w http.ResponseWriter, r *http.Request, status int, code string, message string, meta map[string]string) {
	if meta == nil {
		meta = map[string]string{}
	}
	meta["request_id"] = ensureRequestID(w, r)
	writeJSON(w, status, APIError{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}
