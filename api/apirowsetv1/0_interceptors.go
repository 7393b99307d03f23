package apirowsetv1

import (
	"context"

	"github.com/fulldump/box"

	"github.com/fulldump/rowsetdb/service"
)

type contextKey string

const ContextServicerKey contextKey = "rowsetdb-servicer"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}

// getEntry resolves the row set named in the url.
func getEntry(ctx context.Context) (*service.Entry, error) {
	return GetServicer(ctx).GetRowSet(box.GetUrlParameter(ctx, "rowsetName"))
}
