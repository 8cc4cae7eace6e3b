package mariadb

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// =============================================================================
// Account (account.go)
// =============================================================================

func TestNewAccount(t *testing.T) {
	tests := []struct {
		host     string
		port     uint32
		wantHost string
		wantPort uint32
	}{
		{"db.internal", 3306, "db.internal", 3306},
		{"db.internal:3307", 3306, "db.internal", 3307},
		{"", 0, "", 0},
	}
	for _, tt := range tests {
		a, err := NewAccount(tt.host, "app", "secret", "shop", tt.port)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.host, err)
		}
		if a.Host != tt.wantHost || a.Port != tt.wantPort {
			t.Errorf("%q: expected %s:%d, got %s:%d", tt.host, tt.wantHost, tt.wantPort, a.Host, a.Port)
		}
		if !a.AutoCommit {
			t.Errorf("%q: expected auto-commit by default", tt.host)
		}
	}

	if _, err := NewAccount("db:notaport", "app", "", "", 0); err == nil {
		t.Error("expected an error for an invalid port")
	}
}

func TestAccount_DefaultPort(t *testing.T) {
	a := &Account{Host: "localhost"}
	if a.port() != DefaultPort {
		t.Errorf("expected %d, got %d", DefaultPort, a.port())
	}
	s := &Account{UnixSocket: "/run/mysqld/mysqld.sock"}
	if s.port() != 0 {
		t.Errorf("expected no port for a socket, got %d", s.port())
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want *Account
	}{
		{
			dsn: "app:secret@tcp(db.internal:3307)/shop?timeout=5s&readTimeout=30s&wait_timeout=60",
			want: &Account{
				Host:           "db.internal",
				Port:           3307,
				User:           "app",
				Password:       "secret",
				Schema:         "shop",
				AutoCommit:     true,
				ConnectTimeout: 5 * time.Second,
				ReadTimeout:    30 * time.Second,
				Variables:      map[string]string{"wait_timeout": "60"},
			},
		},
		{
			dsn: "root@unix(/run/mysqld/mysqld.sock)/test?autocommit=0",
			want: &Account{
				User:       "root",
				Schema:     "test",
				UnixSocket: "/run/mysqld/mysqld.sock",
				Variables:  map[string]string{},
			},
		},
		{
			dsn: "app@/",
			want: &Account{
				Host:       "127.0.0.1",
				Port:       3306,
				User:       "app",
				AutoCommit: true,
			},
		},
	}

	for _, tt := range tests {
		got, err := ParseDSN(tt.dsn)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.dsn, err)
		}
		if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(Account{}, "Location")); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", tt.dsn, diff)
		}
	}
}

func TestParseDSN_Location(t *testing.T) {
	a, err := ParseDSN("app@tcp(localhost:3306)/shop?loc=Local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Location != time.Local {
		t.Errorf("expected local time zone, got %v", a.Location)
	}

	o := newOptions(a.options())
	if o.location != time.Local {
		t.Errorf("expected account location in options, got %v", o.location)
	}
}

func TestParseDSN_Invalid(t *testing.T) {
	if _, err := ParseDSN("app@tcp(localhost:3306"); err == nil {
		t.Error("expected an error")
	}
}

func TestAccount_Options(t *testing.T) {
	a := &Account{ConnectTimeout: 3 * time.Second, ReadTimeout: time.Minute}
	loc := time.FixedZone("X", 3600)

	// Explicit options win over the account.
	o := newOptions(append(a.options(), WithReadTimeout(time.Second), WithLocation(loc)))
	if o.connectTimeout != 3*time.Second {
		t.Errorf("expected connect timeout 3s, got %v", o.connectTimeout)
	}
	if o.readTimeout != time.Second {
		t.Errorf("expected read timeout 1s, got %v", o.readTimeout)
	}
	if o.location != loc {
		t.Errorf("expected explicit location, got %v", o.location)
	}
}

func TestNewOptions_Defaults(t *testing.T) {
	o := newOptions(nil)
	if o.location != time.UTC {
		t.Errorf("expected UTC, got %v", o.location)
	}
	if o.log == nil {
		t.Error("expected a default logger")
	}

	o = newOptions([]Option{WithLogger(nil), WithLocation(nil)})
	if o.log == nil || o.location != time.UTC {
		t.Error("expected nil options to fall back to defaults")
	}
}
