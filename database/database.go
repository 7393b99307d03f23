package database

import (
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/backing/memstore"
	"github.com/fulldump/rowsetdb/backing/sqlstore"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

const DriverMemory = "memory"

type Config struct {
	Driver string
	Dsn    string
}

// Database owns the backing store every row set fetches from and
// synchronizes to.
type Database struct {
	config *Config

	mutex  sync.RWMutex
	status string
	store  backing.Store

	exit     chan struct{}
	exitOnce sync.Once
}

func NewDatabase(config *Config) *Database {
	return &Database{
		config: config,
		status: StatusOpening,
		exit:   make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

// Store is nil until Load succeeds.
func (db *Database) Store() backing.Store {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.store
}

// Load opens the configured backing store.
func (db *Database) Load() error {
	driver := db.config.Driver
	if driver == "" {
		driver = DriverMemory
	}
	logger := log.WithField("driver", driver)
	logger.Info("opening backing store")

	t0 := time.Now()
	var store backing.Store
	switch driver {
	case DriverMemory:
		store = memstore.New()
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		s, err := sqlstore.Open(driver, db.config.Dsn)
		if err != nil {
			logger.WithError(err).Error("open backing store")
			db.setStatus(StatusClosing)
			return err
		}
		store = s
	default:
		db.setStatus(StatusClosing)
		return fmt.Errorf("unknown driver '%s'", driver)
	}

	db.mutex.Lock()
	db.store = store
	db.status = StatusOperating
	db.mutex.Unlock()

	logger.WithField("took", time.Since(t0)).Info("backing store ready")
	return nil
}

func (db *Database) Start() error {
	go db.Load()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {
	defer db.exitOnce.Do(func() { close(db.exit) })

	db.mutex.Lock()
	db.status = StatusClosing
	store := db.store
	db.mutex.Unlock()

	closer, ok := store.(io.Closer)
	if !ok {
		return nil
	}
	log.Info("closing backing store")
	err := closer.Close()
	if err != nil {
		log.WithError(err).Error("close backing store")
	}
	return err
}
