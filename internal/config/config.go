// Package config loads the database connection settings this module needs
// from the process environment, in the teacher's defaults-then-overrides,
// aggregate-every-error style (see lib/clientconf's cnf_loader.go).
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// Store holds the settings needed to reach the tabular store.
type Store struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Defaults applied for any environment variable left unset.
const (
	DefaultHost    = "localhost"
	DefaultPort    = 5432
	DefaultUser    = "postgres"
	DefaultName    = "factory_oee"
	DefaultSSLMode = "disable"
)

// Load reads DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME and DB_SSLMODE
// from the environment, applying defaults for anything unset. Every
// malformed value is accumulated into the returned error rather than
// short-circuiting on the first one.
func Load() (*Store, error) {
	var errs *multierror.Error

	s := &Store{
		Host:    DefaultHost,
		Port:    DefaultPort,
		User:    DefaultUser,
		Name:    DefaultName,
		SSLMode: DefaultSSLMode,
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		s.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("DB_PORT %q is not an integer: %w", v, err))
		} else {
			s.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		s.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		s.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		s.Name = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		s.SSLMode = v
	}

	if s.Port < 1 || s.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("DB_PORT %d out of range [1, 65535]", s.Port))
	}
	if s.Host == "" {
		errs = multierror.Append(errs, fmt.Errorf("DB_HOST must not be empty"))
	}
	if s.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("DB_NAME must not be empty"))
	}

	return s, errs.ErrorOrNil()
}

// DSN renders a postgres:// connection string suitable for pgx.
func (s *Store) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}
