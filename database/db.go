package database

import (
	"database/sql"
	"log"
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/meridian-bank/meridian/cache"
	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/internal/apierror"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		newCache, errCache := cache.NewCache()
		if errCache != nil {
			log.Printf("cache initialization error: %v", errCache)
		}
		instance = &Datasource{Conn: con, Cache: newCache}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	return db, nil
}

// classifyPgError maps driver-level failures onto typed API errors. Lock
// conflicts surface as retryable; the service layer owns the retry loop.
func classifyPgError(err error, fallback string) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return apierror.NewAPIError(apierror.ErrInternalServer, fallback, err)
	}
	switch pqErr.Code.Name() {
	case "serialization_failure", "deadlock_detected":
		return apierror.NewAPIError(apierror.ErrTransient, "Operation conflicted with concurrent activity, retry", err)
	case "unique_violation":
		return apierror.NewAPIError(apierror.ErrConflict, "Resource already exists", err)
	case "check_violation":
		return apierror.NewAPIError(apierror.ErrInsufficientFunds, "Insufficient funds", err)
	default:
		return apierror.NewAPIError(apierror.ErrInternalServer, fallback, err)
	}
}

// logrusCacheWarn records a cache failure without surfacing it. The database
// remains the source of truth; a cold or broken cache only costs latency.
func logrusCacheWarn(err error) {
	logrus.Warnf("cache error: %v", err)
}

// rollback discards a transaction, keeping the original error. Rollback
// failures after a commit race are expected and only logged.
func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Printf("transaction rollback error: %v", err)
	}
}
