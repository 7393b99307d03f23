package apirowsetv1

import (
	"context"
	"errors"
	"net/http"

	"github.com/fulldump/box"

	"github.com/fulldump/rowsetdb/rowset"
	"github.com/fulldump/rowsetdb/service"
)

// synchronize answers 409 with the report when some rows conflicted.
func synchronize(ctx context.Context, w http.ResponseWriter) (*service.SyncReport, error) {

	name := box.GetUrlParameter(ctx, "rowsetName")
	report, err := GetServicer(ctx).Synchronize(ctx, name)
	if errors.Is(err, rowset.ErrSynchronization) {
		w.WriteHeader(http.StatusConflict)
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	return report, nil
}

func snapshot(ctx context.Context, w http.ResponseWriter) error {

	name := box.GetUrlParameter(ctx, "rowsetName")
	data, err := GetServicer(ctx).Snapshot(name)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}
