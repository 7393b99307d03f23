package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"
	log "github.com/sirupsen/logrus"

	"github.com/fulldump/rowsetdb/api"
	"github.com/fulldump/rowsetdb/configuration"
	"github.com/fulldump/rowsetdb/database"
	"github.com/fulldump/rowsetdb/service"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	db := database.NewDatabase(&database.Config{
		Driver: c.Driver,
		Dsn:    c.Dsn,
	})

	s := service.NewService(db, service.Config{
		Strategy:   c.SyncStrategy,
		PageSize:   c.PageSize,
		MaxRowSets: c.MaxRowSets,
	})

	b := api.Build(s, VERSION)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(log.StandardLogger()),
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
	)

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	log.WithField("addr", c.HttpAddr).Info("listening")

	stopOnce := sync.Once{}
	stop = func() {
		stopOnce.Do(func() {
			db.Stop()
			server.Shutdown(context.Background())
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		log.WithField("signal", sig.String()).Info("signal received")
		stop()
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				log.WithError(err).Error("database")
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := server.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server")
			}
		}()

		wg.Wait()
	}

	return
}
