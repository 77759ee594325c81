package httpinterface

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrMalformedBody ...
	ErrMalformedBody = errors.New("request body must be a valid JSON object")
	// ErrInvalidQuery ...
	ErrInvalidQuery = errors.New("invalid query param")
	// ErrUnauthorized ...
	ErrUnauthorized = errors.New("missing or invalid auth token")

	badRequestErrors = []error{
		ErrMalformedBody,
		ErrInvalidQuery,
		domain.ErrEmptyName,
		domain.ErrDuplicateName,
		domain.ErrDuplicateKey,
		domain.ErrLastAccount,
		domain.ErrInvalidRequestID,
		wallet.ErrUnsupportedSeedVersion,
		wallet.ErrInvalidEncoding,
		wallet.ErrInvalidMnemonic,
		wallet.ErrInvalidDerivationPath,
		wallet.ErrMalformedDerivationPath,
		wallet.ErrInvalidTransaction,
		wallet.ErrInvalidSignature,
		wallet.ErrInvalidPrevOutput,
		wallet.ErrUnknownScriptType,
		wallet.ErrNullTransaction,
		wallet.ErrNullMnemonic,
		explorer.ErrInvalidArgument,
	}
	unauthorizedErrors = []error{
		ErrUnauthorized,
		domain.ErrNotLoggedIn,
		domain.ErrUnlockFailed,
	}
	notFoundErrors = []error{
		domain.ErrRequestNotFound,
		domain.ErrAccountNotFound,
		domain.ErrVaultNotFound,
	}
)

func statusFromError(err error) int {
	for _, e := range unauthorizedErrors {
		if errors.Is(err, e) {
			return http.StatusUnauthorized
		}
	}
	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	for _, e := range notFoundErrors {
		if errors.Is(err, e) {
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

// writeError responds with {"error": <message>}. Failures of the remote API
// are handed over with their own body.
func writeError(w http.ResponseWriter, err error) {
	status := statusFromError(err)

	var apiErr *explorer.Error
	if errors.As(err, &apiErr) && status == http.StatusInternalServerError {
		writeRawJSON(w, http.StatusBadGateway, apiErr.Body)
		return
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).Warn("control request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func writeRawJSON(w http.ResponseWriter, status int, buf json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(buf) <= 0 {
		buf = json.RawMessage("null")
	}
	w.Write(buf)
}

func decodeBody(req *http.Request, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return ErrMalformedBody
	}
	return nil
}
