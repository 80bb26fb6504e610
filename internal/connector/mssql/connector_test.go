package mssql

import (
	"net/url"
	"testing"

	"github.com/tabletalk/tabletalk/internal/connector"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(connector.ConnectionConfig{
		Host: "sql.example.com", User: "reader", Password: "p@ss;word", Database: "AdventureWorks",
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("generated DSN does not parse: %v", err)
	}
	if u.Scheme != "sqlserver" {
		t.Fatalf("scheme = %q", u.Scheme)
	}
	if u.Host != "sql.example.com:1433" {
		t.Fatalf("host = %q", u.Host)
	}
	if pass, _ := u.User.Password(); pass != "p@ss;word" {
		t.Fatalf("password mangled: %q", pass)
	}
	if u.Query().Get("database") != "AdventureWorks" {
		t.Fatalf("database = %q", u.Query().Get("database"))
	}
}

func TestQuoteIdentifier(t *testing.T) {
	c := &Connector{}
	if got := c.QuoteIdentifier("Person"); got != "[Person]" {
		t.Fatalf("QuoteIdentifier = %q", got)
	}
	if got := c.QuoteIdentifier("odd]name"); got != "[odd]]name]" {
		t.Fatalf("embedded bracket not escaped: %q", got)
	}
}
