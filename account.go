package mariadb

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DefaultPort is the server port used when none is given.
const DefaultPort = 3306

// Account holds everything needed to open a connection.
type Account struct {
	Host       string
	User       string
	Password   string
	Schema     string
	Port       uint32
	UnixSocket string

	// AutoCommit is applied right after connecting.
	AutoCommit bool

	// Variables are session variables set with SET after connecting.
	Variables map[string]string

	// Zero values leave the Connect options in charge.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Location       *time.Location
}

// NewAccount creates an account with auto-commit enabled. A port given in
// host as "host:port" takes precedence over port.
func NewAccount(host, user, password, schema string, port uint32) (*Account, error) {
	a := &Account{
		Host:       host,
		User:       user,
		Password:   password,
		Schema:     schema,
		Port:       port,
		AutoCommit: true,
	}

	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		p, err := strconv.ParseUint(host[i+1:], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("mariadb: invalid port in host %q: %w", host, err)
		}
		a.Host = host[:i]
		a.Port = uint32(p)
	}
	return a, nil
}

// ParseDSN builds an account from a DSN in the format of
// github.com/go-sql-driver/mysql, e.g.
//
//	user:password@tcp(localhost:3306)/schema?timeout=5s&loc=Local
//
// Unknown DSN parameters become session variables.
func ParseDSN(dsn string) (*Account, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mariadb: parse dsn: %w", err)
	}

	a := &Account{
		User:           cfg.User,
		Password:       cfg.Passwd,
		Schema:         cfg.DBName,
		AutoCommit:     true,
		ConnectTimeout: cfg.Timeout,
		ReadTimeout:    cfg.ReadTimeout,
		Location:       cfg.Loc,
	}

	switch cfg.Net {
	case "unix":
		a.UnixSocket = cfg.Addr
	default:
		host, port, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("mariadb: parse dsn address %q: %w", cfg.Addr, err)
		}
		p, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("mariadb: parse dsn port %q: %w", port, err)
		}
		a.Host = host
		a.Port = uint32(p)
	}

	if len(cfg.Params) > 0 {
		a.Variables = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			if k == "autocommit" {
				a.AutoCommit = v == "1" || strings.EqualFold(v, "true")
				continue
			}
			a.Variables[k] = v
		}
	}
	return a, nil
}

// options returns the connection options the account implies.
func (a *Account) options() []Option {
	var opts []Option
	if a.ConnectTimeout > 0 {
		opts = append(opts, WithConnectTimeout(a.ConnectTimeout))
	}
	if a.ReadTimeout > 0 {
		opts = append(opts, WithReadTimeout(a.ReadTimeout))
	}
	if a.Location != nil {
		opts = append(opts, WithLocation(a.Location))
	}
	return opts
}

func (a *Account) port() uint32 {
	if a.Port == 0 && a.UnixSocket == "" {
		return DefaultPort
	}
	return a.Port
}
