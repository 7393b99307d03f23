package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"
	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic turns a panicking handler into a 500.
func RecoverFromPanic(next box.H) box.H {
	return func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error(string(debug.Stack()))
				box.SetError(ctx, fmt.Errorf("panic: %v", r))
			}
		}()
		next(ctx)
	}
}

func AccessLog(l *log.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				entry := l.WithFields(log.Fields{
					"remote": formatRemoteAddr(r),
					"method": r.Method,
					"url":    r.URL.String(),
					"took":   time.Since(now),
				})
				if err := box.GetError(ctx); err != nil {
					entry = entry.WithError(err)
				}
				entry.Info("access")
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	i := strings.LastIndex(r.RemoteAddr, ":")
	if i < 0 {
		return r.RemoteAddr
	}
	return r.RemoteAddr[:i]
}
