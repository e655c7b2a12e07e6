package model

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	l "github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model/sql_migrations"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Opens the job, conversation and user database with the given credentials
func Connect(ctx context.Context, dbConfig *config.Database, username, password, applicationName string) (db *gorm.DB, err error) {
	log := l.NewSublogger("db")

	dsn := connectionString(dbConfig, username, password, applicationName)

	certs, cleanup, err := writeCertificates(dbConfig)
	defer cleanup()
	if err != nil {
		return
	}
	if certs != "" {
		log.WithField("application", applicationName).Info("Connecting with client certificates")
		dsn += " " + certs
	}

	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 queryLogger(log),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	// Negative timeout disables the check
	if dbConfig.PingTimeout < 0 {
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbConfig.PingTimeout)
	defer cancel()

	err = sqlDB.PingContext(pingCtx)
	return
}

// Runs pending migrations, then connects as the regular marketplace user
func NewConnection(ctx context.Context, config *config.Config, applicationName string) (*gorm.DB, error) {
	err := Migrate(ctx, config)
	if err != nil {
		return nil, err
	}

	return Connect(ctx, &config.Database, config.Database.User, config.Database.Password, applicationName)
}

// Applies the embedded schema using the dedicated migration user.
// Migration credentials are wiped from the config afterwards.
func Migrate(ctx context.Context, config *config.Config) (err error) {
	log := l.NewSublogger("db-migrate")

	if config.Database.MigrationUser == "" || config.Database.MigrationPassword == "" {
		log.Info("Migration user not set, skipping migrations")
		return
	}

	db, err := Connect(ctx, &config.Database, config.Database.MigrationUser, config.Database.MigrationPassword, "migration")
	if err != nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	defer sqlDB.Close()

	n, err := migrate.Exec(sqlDB, "postgres", &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(sql_migrations.FS),
	}, migrate.Up)
	if err != nil {
		return
	}

	log.WithField("num", n).Info("Applied migrations")

	config.Database.MigrationUser = ""
	config.Database.MigrationPassword = ""
	return
}

func connectionString(dbConfig *config.Database, username, password, applicationName string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=marketplace/%s",
		dbConfig.Host,
		dbConfig.Port,
		username,
		password,
		dbConfig.Name,
		dbConfig.SslMode,
		applicationName,
	)
}

// Client certificates come in through the environment, libpq needs them as files.
// Returns the extra connection parameters, empty when certificates aren't fully configured.
// Cleanup is always safe to call.
func writeCertificates(dbConfig *config.Database) (params string, cleanup func(), err error) {
	var files []string
	cleanup = func() {
		for _, name := range files {
			os.Remove(name)
		}
	}

	if dbConfig.ClientKey == "" || dbConfig.ClientCert == "" || dbConfig.CaCert == "" {
		return
	}

	parts := make([]string, 0, 3)
	for _, pem := range []struct {
		param, pattern, content string
	}{
		{"sslcert", "cert-*.pem", dbConfig.ClientCert},
		{"sslkey", "key-*.pem", dbConfig.ClientKey},
		{"sslrootcert", "ca-*.pem", dbConfig.CaCert},
	} {
		var f *os.File
		f, err = os.CreateTemp("", pem.pattern)
		if err != nil {
			return
		}
		files = append(files, f.Name())

		_, err = f.WriteString(pem.content)
		f.Close()
		if err != nil {
			return
		}
		parts = append(parts, pem.param+"="+f.Name())
	}

	params = strings.Join(parts, " ")
	return
}

func queryLogger(log *logrus.Entry) logger.Interface {
	return logger.New(log, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Error,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
