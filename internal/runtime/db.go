package runtime

import (
	"fmt"
	"net"
	"net/url"

	"github.com/mohammad-safakhou/worstcrm/config"
)

// BuildPostgresDSN constructs a DSN from the application configuration.
// Credentials are escaped, so any character is safe in the password.
func BuildPostgresDSN(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config is nil")
	}
	p := cfg.Storage.Postgres
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres configuration incomplete: host/dbname required")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, port),
		Path:     "/" + p.DBName,
		RawQuery: url.Values{"sslmode": {ssl}}.Encode(),
	}
	return u.String(), nil
}
