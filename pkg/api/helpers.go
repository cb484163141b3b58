// Package api provides standardized helper functions for HTTP API responses.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "cascade-engine/pkg/errors"
)

// Success sends a successful HTTP response with optional JSON data.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error sends an error response with consistent JSON format.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// AppError maps an application error to the right HTTP status code.
func AppError(w http.ResponseWriter, err error) {
	var appErr *pkgerrors.AppError
	if !errors.As(err, &appErr) {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch appErr.Type {
	case pkgerrors.ErrorTypeValidation:
		Error(w, http.StatusBadRequest, appErr.Message)
	case pkgerrors.ErrorTypeNotFound:
		Error(w, http.StatusNotFound, appErr.Message)
	case pkgerrors.ErrorTypeConflict:
		Error(w, http.StatusConflict, appErr.Message)
	case pkgerrors.ErrorTypeKernelUnavailable:
		Error(w, http.StatusServiceUnavailable, appErr.Message)
	case pkgerrors.ErrorTypeKernelOperation:
		Error(w, http.StatusBadGateway, appErr.Message)
	default:
		Error(w, http.StatusInternalServerError, appErr.Message)
	}
}
