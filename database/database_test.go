package database

import (
	"path/filepath"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/rowsetdb/backing/memstore"
	"github.com/fulldump/rowsetdb/backing/sqlstore"
)

func TestDatabase(t *testing.T) {

	biff.Alternative("Memory", func(a *biff.A) {
		db := NewDatabase(&Config{})
		biff.AssertEqual(db.GetStatus(), StatusOpening)
		biff.AssertNil(db.Store())

		biff.AssertNil(db.Load())
		biff.AssertEqual(db.GetStatus(), StatusOperating)
		_, ok := db.Store().(*memstore.Store)
		biff.AssertTrue(ok)

		a.Alternative("Stop", func(a *biff.A) {
			biff.AssertNil(db.Stop())
			biff.AssertEqual(db.GetStatus(), StatusClosing)
			biff.AssertNil(db.Stop())
		})
	})

	biff.Alternative("SQLite", func(a *biff.A) {
		db := NewDatabase(&Config{
			Driver: sqlstore.DriverSQLite,
			Dsn:    filepath.Join(t.TempDir(), "rowsetdb.db"),
		})
		biff.AssertNil(db.Load())
		_, ok := db.Store().(*sqlstore.Store)
		biff.AssertTrue(ok)
		biff.AssertNil(db.Stop())
	})

	biff.Alternative("Unknown driver", func(a *biff.A) {
		db := NewDatabase(&Config{Driver: "oracle"})
		biff.AssertNotNil(db.Load())
		biff.AssertEqual(db.GetStatus(), StatusClosing)
	})
}

func TestStart(t *testing.T) {
	db := NewDatabase(&Config{})
	done := make(chan error)
	go func() {
		done <- db.Start()
	}()
	db.Stop()
	biff.AssertNil(<-done)
}
