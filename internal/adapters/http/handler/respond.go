package handler

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/hlog"
)

// requestError is a malformed or incomplete request. Its message is shown to the client.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type messageBody struct {
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. Unknown keys are ignored.
// Any failure becomes a requestError carrying msg.
func (h *Handler) decode(r *http.Request, dst any, msg string) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return badRequest(msg)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			hlog.FromRequest(r).Debug().Str("field", verrs[0].Field()).Str("rule", verrs[0].Tag()).Msg("request validation failed")
		}
		return badRequest(msg)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// writeError maps err to a status and message. Server errors are logged with
// their cause and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := toHTTPError(err)
	logger := hlog.FromRequest(r)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeMessage(w, status, msg)
}
