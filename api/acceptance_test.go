package api

import (
	"net/http"
	"testing"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"

	"github.com/fulldump/rowsetdb/database"
	"github.com/fulldump/rowsetdb/service"
)

func TestAcceptance(t *testing.T) {

	biff.Alternative("Setup", func(a *biff.A) {

		db := database.NewDatabase(&database.Config{
			Driver: database.DriverMemory,
		})

		biff.AssertNil(db.Load())
		biff.AssertEqual(db.GetStatus(), database.StatusOperating)

		s := service.NewService(db, service.Config{})

		b := Build(s, "test")
		b.WithInterceptors(
			InterceptorUnavailable(db),
			RecoverFromPanic,
			PrettyErrorInterceptor,
		)

		api := apitest.NewWithHandler(b)

		service.Acceptance(a, func(method, path string) *apitest.Request {
			return api.Request(method, "/v1"+path)
		})

	})
}

func TestRelease(t *testing.T) {
	db := database.NewDatabase(&database.Config{})
	biff.AssertNil(db.Load())

	b := Build(service.NewService(db, service.Config{}), "v1.2.3")
	api := apitest.NewWithHandler(b)

	resp := api.Request("GET", "/release").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
	biff.AssertEqual(resp.BodyJson(), "v1.2.3")

	resp = api.Request("GET", "/metrics").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusOK)
}

func TestUnavailable(t *testing.T) {
	db := database.NewDatabase(&database.Config{})

	b := Build(service.NewService(db, service.Config{}), "test")
	b.WithInterceptors(
		InterceptorUnavailable(db),
		PrettyErrorInterceptor,
	)
	api := apitest.NewWithHandler(b)

	resp := api.Request("GET", "/v1/rowsets").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusServiceUnavailable)
}

func TestUnknownResource(t *testing.T) {
	db := database.NewDatabase(&database.Config{})
	biff.AssertNil(db.Load())

	b := Build(service.NewService(db, service.Config{}), "test")
	b.WithInterceptors(PrettyErrorInterceptor)
	api := apitest.NewWithHandler(b)

	resp := api.Request("GET", "/v1/nothing/here").Do()
	biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
}
