package mysql

import (
	"strings"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/tabletalk/tabletalk/internal/connector"
)

func TestBuildDSNRoundTrips(t *testing.T) {
	dsn := BuildDSN(connector.ConnectionConfig{
		Host: "db.example.com", User: "reader", Password: "p@ss/word", Database: "sakila",
	})

	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("generated DSN does not parse: %v", err)
	}
	if cfg.Net != "tcp" {
		t.Fatalf("net = %q, want tcp", cfg.Net)
	}
	if cfg.Addr != "db.example.com:3306" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.Passwd != "p@ss/word" {
		t.Fatalf("password mangled: %q", cfg.Passwd)
	}
	if cfg.DBName != "sakila" {
		t.Fatalf("database = %q", cfg.DBName)
	}
	if !cfg.ParseTime {
		t.Fatal("parseTime not enabled")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	c := &Connector{}
	if got := c.QuoteIdentifier("film"); got != "`film`" {
		t.Fatalf("QuoteIdentifier = %q", got)
	}
	if got := c.QuoteIdentifier("odd`name"); !strings.Contains(got, "``") {
		t.Fatalf("embedded backtick not escaped: %q", got)
	}
}
