package gateway

import (
	"errors"
	"net/http"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// HTTP status of an error returned by the services
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, model.ErrInvalidExternalId):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateApplication),
		errors.Is(err, model.ErrAlreadyApproved),
		errors.Is(err, model.ErrAlreadyComplete),
		errors.Is(err, model.ErrAlreadyFinalized),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrNoApprovedApplicant),
		errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrSettlement):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
