package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/database"
	"github.com/fulldump/rowsetdb/rowset"
	"github.com/fulldump/rowsetdb/service"
)

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func writeError(w http.ResponseWriter, status int, err error, description string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": PrettyError{
			Message:     err.Error(),
			Description: description,
		},
	})
}

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status != database.StatusOperating {
				box.SetError(ctx, fmt.Errorf("%w: %s", service.ErrorUnavailable, status))
				return
			}
			next(ctx)
		}
	}
}

// errorStatuses is checked in order, the first match wins.
var errorStatuses = []struct {
	err         error
	status      int
	description string
}{
	{service.ErrorRowSetNotFound, http.StatusNotFound, "row set not found"},
	{backing.ErrNoTable, http.StatusNotFound, "table not found in the backing store"},
	{service.ErrorRowSetAlreadyExists, http.StatusConflict, "row set already exists"},
	{backing.ErrConstraint, http.StatusConflict, "the backing store rejected the change"},
	{rowset.ErrSynchronization, http.StatusConflict, "some rows conflicted"},
	{service.ErrorUnavailable, http.StatusServiceUnavailable, "temporary unavailable"},
	{service.ErrorNoSchema, http.StatusNotImplemented, "the backing store does not create tables"},
	{rowset.ErrInvalidCursor, http.StatusBadRequest, "no such row"},
	{rowset.ErrInvalidColumn, http.StatusBadRequest, "no such column"},
	{rowset.ErrTypeMismatch, http.StatusBadRequest, "value does not fit the column type"},
	{rowset.ErrFilterViolation, http.StatusBadRequest, "value violates the filter"},
	{rowset.ErrInvalidState, http.StatusBadRequest, "operation not allowed now"},
	{rowset.ErrUnsupportedDirection, http.StatusBadRequest, "direction not supported"},
	{rowset.ErrUnsortable, http.StatusBadRequest, "column can not be sorted"},
	{rowset.ErrColumnBindingMismatch, http.StatusBadRequest, "columns are not the bound ones"},
	{rowset.ErrValueUnknown, http.StatusBadRequest, "conflict value unknown"},
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		if err == box.ErrResourceNotFound {
			writeError(w, http.StatusNotFound, err, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String()))
			return
		}

		if err == box.ErrMethodNotAllowed {
			writeError(w, http.StatusMethodNotAllowed, err, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method))
			return
		}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			writeError(w, http.StatusBadRequest, err, "Malformed JSON")
			return
		}

		for _, e := range errorStatuses {
			if errors.Is(err, e.err) {
				writeError(w, e.status, err, e.description)
				return
			}
		}

		writeError(w, http.StatusInternalServerError, err, "Unexpected error")
	}
}
