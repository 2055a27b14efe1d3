package httpadapter

import (
	"net/http"

	"github.com/kirillkom/equipment-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrUnsupportedEquipmentType),
		domain.IsKind(err, domain.ErrMalformedLabel):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrCatalogLookup):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
