package connector

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/tabletalk/tabletalk/internal/model"
)

// fakeConnector records lifecycle calls without touching a real database.
type fakeConnector struct {
	connectErr   error
	connected    bool
	disconnected bool
}

func (f *fakeConnector) Connect(ConnectionConfig) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConnector) Disconnect() error {
	f.disconnected = true
	return nil
}

func (f *fakeConnector) Ping(context.Context) error { return nil }
func (f *fakeConnector) DB() *sqlx.DB               { return nil }
func (f *fakeConnector) DriverName() string         { return "fake" }
func (f *fakeConnector) QuoteIdentifier(name string) string {
	return name
}

func (f *fakeConnector) IntrospectSchema(context.Context) (*model.Schema, error) {
	return &model.Schema{}, nil
}

func (f *fakeConnector) Query(context.Context, string) (*model.RawRows, error) {
	return &model.RawRows{}, nil
}

func (f *fakeConnector) SampleRows(context.Context, string, int) (*model.RawRows, error) {
	return &model.RawRows{}, nil
}

func TestRegistryConnectAndGet(t *testing.T) {
	r := NewRegistry()
	fake := &fakeConnector{}
	r.RegisterDriver("fake", func() Connector { return fake })

	if err := r.Connect("conv-1", ConnectionConfig{Driver: "fake"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !fake.connected {
		t.Fatal("factory connector never connected")
	}

	got, err := r.Get("conv-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != fake {
		t.Fatal("Get returned a different connector")
	}
}

func TestRegistryUnsupportedDriver(t *testing.T) {
	r := NewRegistry()
	if err := r.Connect("conv-1", ConnectionConfig{Driver: "dbase"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	if _, err := r.Get("conv-1"); err == nil {
		t.Fatal("failed connect must not register a connection")
	}
}

func TestRegistryConnectFailureLeavesNoEntry(t *testing.T) {
	r := NewRegistry()
	r.RegisterDriver("fake", func() Connector {
		return &fakeConnector{connectErr: errors.New("refused")}
	})

	if err := r.Connect("conv-1", ConnectionConfig{Driver: "fake"}); err == nil {
		t.Fatal("expected connect error")
	}
	if _, err := r.Get("conv-1"); err == nil {
		t.Fatal("failed connect must not register a connection")
	}
}

func TestRegistryReconnectReplacesConnection(t *testing.T) {
	r := NewRegistry()
	first := &fakeConnector{}
	second := &fakeConnector{}
	conns := []*fakeConnector{first, second}
	i := 0
	r.RegisterDriver("fake", func() Connector {
		c := conns[i]
		i++
		return c
	})

	if err := r.Connect("conv-1", ConnectionConfig{Driver: "fake"}); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := r.Connect("conv-1", ConnectionConfig{Driver: "fake"}); err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	if !first.disconnected {
		t.Fatal("replaced connection was not closed")
	}
	got, _ := r.Get("conv-1")
	if got != second {
		t.Fatal("registry kept the old connection")
	}
}

func TestRegistryDisconnect(t *testing.T) {
	r := NewRegistry()
	fake := &fakeConnector{}
	r.RegisterDriver("fake", func() Connector { return fake })

	if err := r.Connect("conv-1", ConnectionConfig{Driver: "fake"}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := r.Disconnect("conv-1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if !fake.disconnected {
		t.Fatal("connector not closed on disconnect")
	}
	if err := r.Disconnect("conv-1"); err == nil {
		t.Fatal("second disconnect should report no connection")
	}
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	fakes := []*fakeConnector{{}, {}}
	i := 0
	r.RegisterDriver("fake", func() Connector {
		c := fakes[i]
		i++
		return c
	})

	r.Connect("conv-1", ConnectionConfig{Driver: "fake"})
	r.Connect("conv-2", ConnectionConfig{Driver: "fake"})
	r.CloseAll()

	for n, f := range fakes {
		if !f.disconnected {
			t.Fatalf("connection %d not closed", n)
		}
	}
	if _, err := r.Get("conv-1"); err == nil {
		t.Fatal("connection survived CloseAll")
	}
}
