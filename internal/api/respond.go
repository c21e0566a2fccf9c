package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20

	internalMessage = "internal error"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    coreerrors.Code `json:"code"`
	Message string          `json:"message"`
}

// statusOf maps an error code to its HTTP status.
func statusOf(code coreerrors.Code) int {
	switch code {
	case coreerrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case coreerrors.CodeInvalidInput, coreerrors.CodeValidationFailed, coreerrors.CodeDuplicateKeyword:
		return http.StatusBadRequest
	case coreerrors.CodeStrategyAlreadyActive, coreerrors.CodeNoActiveStrategy,
		coreerrors.CodeSessionCompleted, coreerrors.CodeProjectArchived:
		return http.StatusConflict
	case coreerrors.CodeAIServiceError, coreerrors.CodeResearchFailed:
		return http.StatusBadGateway
	}

	if code.IsNotFound() {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the error envelope. Uncoded errors are logged and
// reported without their text.
func writeError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	code := coreerrors.CodeOf(err)
	message := coreerrors.MessageOf(err)

	if code == coreerrors.CodeInternal {
		logger.Error().Err(err).Msg("request failed")

		message = internalMessage
	}

	writeJSON(w, statusOf(code), errorBody{Error: errorDetail{Code: code, Message: message}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return coreerrors.Wrap(coreerrors.CodeInvalidInput, "invalid request body", err)
	}

	return nil
}
