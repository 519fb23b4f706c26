package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// WriteSuccess writes {"success":true,"message":message,key:data}. An empty
// key omits the payload.
func WriteSuccess(w http.ResponseWriter, message, key string, data any) {
	WriteSuccessStatus(w, http.StatusOK, message, key, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, message, key string, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Message: message, Key: key, Data: data}.Fields())
}

// WriteError renders err as the error envelope. Client errors (4xx) carry
// their own message; server errors fall back to the code's public message and
// are logged with the full chain.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	payload := types.ErrorEnvelope{
		Message: meta.PublicMessage,
		Code:    string(typed.Code()),
	}
	if meta.HTTPStatus < http.StatusInternalServerError && typed.Message() != "" {
		payload.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		payload.Details = typed.Details()
	}

	if logg != nil {
		logFailure(ctx, logg, err, typed, meta)
	}
	writeJSON(w, meta.HTTPStatus, payload)
}

func logFailure(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error, meta pkgerrors.Metadata) {
	if meta.HTTPStatus < http.StatusInternalServerError {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"error_code": string(typed.Code()),
			"error":      err.Error(),
		}), "request.rejected")
		return
	}
	fields := pkgerrors.Dump(err).Fields()
	if details, ok := typed.Details().(map[string]any); ok {
		if step, ok := details["step"]; ok {
			fields["step"] = step
		}
	}
	logg.Error(logg.WithFields(ctx, fields), "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"message":"Internal server error","code":"INTERNAL_ERROR"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
