package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	config "github.com/quizai/quiz_ai/configs"
	"github.com/quizai/quiz_ai/models"
)

var (
	// ErrNotConfigured means required connection settings (host, password)
	// are absent. No network call is ever attempted in this state.
	ErrNotConfigured = errors.New("database: connection settings incomplete")

	// ErrUnavailable means the store could not be reached.
	ErrUnavailable = errors.New("database: unavailable")

	// ErrDuplicateMail is the translated uniqueness violation on users.mail.
	ErrDuplicateMail = errors.New("database: mail already registered")

	// ErrNotFound is the translated empty-result condition.
	ErrNotFound = errors.New("database: record not found")
)

const (
	errUnknownDatabase   = 1049
	errDuplicateEntry    = 1062
	errDBAccessDenied    = 1044
	errPrivilegeRequired = 1227
	errTableAccessDenied = 1142

	tlsConfigName = "quizai"

	availabilityTimeout = 2 * time.Second
	statementTimeout    = 5 * time.Second
)

var (
	mu        sync.RWMutex
	db        *gorm.DB
	settings  config.DBSettings
	connected bool
)

// Connect resolves the connection settings and opens a bounded GORM pool.
// When the named database does not exist yet it is created on the fly,
// tolerating providers that refuse CREATE DATABASE. Any failure leaves the
// process in degraded mode rather than crashing it.
func Connect() error {
	s := config.ResolveDBSettings()

	mu.Lock()
	settings = s
	mu.Unlock()

	if !s.Complete() {
		log.Println("Database settings incomplete (host or password missing), running without persistence")
		return ErrNotConfigured
	}

	if s.SSLCA != "" {
		if err := registerTLS(s); err != nil {
			log.Printf("Failed to load SSL CA %s: %v", s.SSLCA, err)
			return fmt.Errorf("register tls config: %w", err)
		}
	}

	conn, err := open(s, s.Database)
	if err != nil {
		var myErr *mysql.MySQLError
		if !errors.As(err, &myErr) || myErr.Number != errUnknownDatabase {
			return fmt.Errorf("connect database: %w", err)
		}

		if cerr := createDatabase(s); cerr != nil {
			return fmt.Errorf("connect server: %w", cerr)
		}

		// A managed provider may also provision the database out of band,
		// so the direct connection gets a second chance either way.
		conn, err = open(s, s.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
	}

	mu.Lock()
	db = conn
	connected = true
	mu.Unlock()

	log.Printf("Database connected (%s, pool size %d)", s.Addr(), s.PoolSize)
	return nil
}

// EnsureSchema idempotently creates the users and quizzes tables.
func EnsureSchema() error {
	conn := handle()
	if conn == nil {
		return ErrNotConfigured
	}

	if err := conn.AutoMigrate(&models.User{}, &models.Quiz{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	log.Println("Tables 'users' and 'quizzes' checked/created")
	return nil
}

func open(s config.DBSettings, dbName string) (*gorm.DB, error) {
	conn, err := gorm.Open(gormmysql.Open(dsn(s, dbName)), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(s.PoolSize)
	sqlDB.SetMaxIdleConns(s.PoolSize)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	return conn, nil
}

// createDatabase connects without a database and issues CREATE DATABASE IF
// NOT EXISTS. Privilege refusals are logged and tolerated; anything else is
// fatal to setup.
func createDatabase(s config.DBSettings) error {
	server, err := open(s, "")
	if err != nil {
		return err
	}
	sqlDB, err := server.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	err = server.Exec("CREATE DATABASE IF NOT EXISTS " + s.Database).Error
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) &&
			(myErr.Number == errDBAccessDenied || myErr.Number == errPrivilegeRequired || myErr.Number == errTableAccessDenied) {
			log.Printf("No privilege to create database %q, assuming the provider pre-provisions it: %v", s.Database, err)
			return nil
		}
		return err
	}

	log.Printf("Database %q checked/created", s.Database)
	return nil
}

func dsn(s config.DBSettings, dbName string) string {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = s.Addr()
	cfg.DBName = dbName
	cfg.ParseTime = true
	cfg.Timeout = 5 * time.Second
	if s.SSLCA != "" {
		cfg.TLSConfig = tlsConfigName
	}
	return cfg.FormatDSN()
}

// registerTLS installs the resolved CA under a named driver TLS config,
// verifying the server certificate chain but not its hostname.
func registerTLS(s config.DBSettings) error {
	pem, err := os.ReadFile(s.SSLCA)
	if err != nil {
		return err
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("no certificates found in %s", s.SSLCA)
	}

	tlsConfig := &tls.Config{
		RootCAs:            pool,
		InsecureSkipVerify: !s.SSLVerifyIdentity,
	}
	if s.SSLVerifyCert && !s.SSLVerifyIdentity {
		tlsConfig.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			certs := make([]*x509.Certificate, 0, len(rawCerts))
			for _, raw := range rawCerts {
				cert, err := x509.ParseCertificate(raw)
				if err != nil {
					return err
				}
				certs = append(certs, cert)
			}
			if len(certs) == 0 {
				return errors.New("server presented no certificates")
			}
			opts := x509.VerifyOptions{Roots: pool, Intermediates: x509.NewCertPool()}
			for _, cert := range certs[1:] {
				opts.Intermediates.AddCert(cert)
			}
			_, err := certs[0].Verify(opts)
			return err
		}
	}

	return mysql.RegisterTLSConfig(tlsConfigName, tlsConfig)
}

// Available is a live reachability probe, never a cached flag: managed
// databases come and go after the process has started.
func Available() bool {
	conn := handle()
	if conn == nil {
		return false
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), availabilityTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}

// Connected reports whether setup ever succeeded in this process.
func Connected() bool {
	mu.RLock()
	defer mu.RUnlock()
	return connected
}

// Settings returns the resolved connection settings for status endpoints.
func Settings() config.DBSettings {
	mu.RLock()
	defer mu.RUnlock()
	return settings
}

func handle() *gorm.DB {
	mu.RLock()
	defer mu.RUnlock()
	return db
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), statementTimeout)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == errDuplicateEntry {
			return ErrDuplicateMail
		}
		return err
	}

	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrUnavailable
	}
	return err
}
