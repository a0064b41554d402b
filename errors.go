package newsdesk

import (
	"errors"

	"github.com/matthewjhunter/newsdesk/internal/apperr"
	"github.com/matthewjhunter/newsdesk/internal/storage"
)

// classify converts storage and driver errors into AppErrors. It returns nil
// for nil and passes AppErrors through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NewNotFound(err)
	case errors.Is(err, storage.ErrInvalidSort):
		return apperr.NewBadRequest(err)
	case errors.Is(err, storage.ErrUnknownReference):
		return apperr.NewInternal(err)
	}
	return apperr.FromDB(err)
}
