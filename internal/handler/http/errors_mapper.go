package http

import (
	"errors"
	"net/http"

	"github.com/airsyncd/airsyncd/internal/service"
	"github.com/airsyncd/airsyncd/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided: http.StatusBadRequest,
	service.ErrWrongPassword:       http.StatusUnauthorized,
	service.ErrTokenIsExpired:      http.StatusUnauthorized,

	store.ErrLoginAlreadyExists: http.StatusConflict,
	store.ErrNoDeviceWasFound:   http.StatusNotFound,
	store.ErrCollectionNotFound: http.StatusNotFound,
	store.ErrItemNotFound:       http.StatusNotFound,
	store.ErrSyncStateNotFound:  http.StatusNotFound,
	store.ErrNotifySetNotFound:  http.StatusNotFound,
	store.ErrKeyMismatch:        http.StatusConflict,
	store.ErrItemAlreadyExists:  http.StatusConflict,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
