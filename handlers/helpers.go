package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/services"
)

const maxBodyBytes = 1_048_576 // 1MB

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// dataResponse - успешный ответ {success, data[, message]}.
func dataResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}, message string) {
	env := jsonResponse{"success": true, "data": data}
	if message != "" {
		env["message"] = message
	}
	if err := writeJSON(w, status, env, nil); err != nil {
		log.Error().Err(err).Str("request_id", chiMiddleware.GetReqID(r.Context())).Msg("failed to write JSON response")
	}
}

// listResponse - успешный ответ со списком и его длиной.
func listResponse(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	env := jsonResponse{"success": true, "data": data, "count": count}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		log.Error().Err(err).Str("request_id", chiMiddleware.GetReqID(r.Context())).Msg("failed to write JSON response")
	}
}

func messageResponse(w http.ResponseWriter, r *http.Request, message string) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "message": message}, nil); err != nil {
		log.Error().Err(err).Str("request_id", chiMiddleware.GetReqID(r.Context())).Msg("failed to write JSON response")
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	env := jsonResponse{"success": false, "error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		log.Error().Err(err).Str("request_id", chiMiddleware.GetReqID(r.Context())).Msg("failed to write error response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("internal server error")
	errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusNotFound, err.Error())
}

func conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusConflict, err.Error())
}

// NotFound - ответ для неизвестных маршрутов.
func NotFound(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "route not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("method %s is not allowed for this resource", r.Method))
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		notFoundResponse(w, r, err)

	// Невалидные данные, нарушение бизнес-правил и удаление сущности с зависимыми
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrHasDependents):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrVersionConflict):
		conflictResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	return id, nil
}

// intQuery читает положительное целое из query; пустое значение дает def.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s query parameter", name)
	}
	return value, nil
}

func boolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s query parameter", name)
	}
	return value, nil
}
