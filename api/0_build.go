package api

import (
	"context"

	"github.com/fulldump/box"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fulldump/rowsetdb/api/apirowsetv1"
	"github.com/fulldump/rowsetdb/service"
)

func Build(s service.Servicer, version string) *box.B {

	b := box.NewBox()

	v1 := b.Resource("/v1")
	v1.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		injectServicer(s),
	)
	apirowsetv1.BuildV1RowSet(v1)

	// compression is left to the outer interceptor
	metrics := promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		DisableCompression: true,
	})
	b.Resource("/metrics").
		WithActions(box.Get(metrics.ServeHTTP).WithName("metrics"))

	b.Resource("/release").
		WithActions(box.Get(func() string {
			return version
		}).WithName("release"))

	return b
}

func injectServicer(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(apirowsetv1.SetServicer(ctx, s))
		}
	}
}
