package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
)

// stubStore satisfies Store with canned responses so registry dispatch can be
// observed without a real driver.
type stubStore struct {
	table string
}

func (s *stubStore) Columns(ctx context.Context) ([]ColumnProfile, error) { return nil, nil }
func (s *stubStore) Query(ctx context.Context, req *QueryRequest) (*QueryResult, error) {
	return &QueryResult{}, nil
}
func (s *stubStore) Table() string { return s.table }
func (s *stubStore) Close() error  { return nil }

func driverConfig(driver string) *config.Config {
	return &config.Config{Store: config.StoreConfig{Driver: driver, Table: "sales"}}
}

func TestOpen_DispatchesToRegisteredDriver(t *testing.T) {
	Register(Registration{
		Info: AdapterInfo{Driver: "stub-dispatch", DisplayName: "Stub"},
		Open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
			return &stubStore{table: cfg.Store.Table}, nil
		},
	})

	s, err := Open(context.Background(), driverConfig("stub-dispatch"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Table() != "sales" {
		t.Errorf("Table() = %q, want sales", s.Table())
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), driverConfig("duckdb"), zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unregistered driver")
	}
	if !errors.Is(err, apperrors.ErrUnsupportedDriver) {
		t.Errorf("error = %v, want ErrUnsupportedDriver", err)
	}
	if !strings.Contains(err.Error(), `"duckdb"`) {
		t.Errorf("error should name the requested driver: %v", err)
	}
}

func TestOpen_WrapsFactoryError(t *testing.T) {
	factoryErr := errors.New("connection pool exhausted")
	Register(Registration{
		Info: AdapterInfo{Driver: "stub-failing", DisplayName: "Failing stub"},
		Open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
			return nil, factoryErr
		},
	})

	_, err := Open(context.Background(), driverConfig("stub-failing"), zap.NewNop())
	if !errors.Is(err, factoryErr) {
		t.Errorf("error = %v, want wrapped factory error", err)
	}
	if !strings.Contains(err.Error(), "open stub-failing store") {
		t.Errorf("error should name the driver being opened: %v", err)
	}
}

func TestIsRegistered(t *testing.T) {
	Register(Registration{
		Info: AdapterInfo{Driver: "stub-known", DisplayName: "Known stub"},
		Open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
			return &stubStore{}, nil
		},
	})

	if !IsRegistered("stub-known") {
		t.Error("IsRegistered(stub-known) = false, want true")
	}
	if IsRegistered("duckdb") {
		t.Error("IsRegistered(duckdb) = true, want false")
	}
}

func TestRegisteredAdapters_ReportsInfo(t *testing.T) {
	Register(Registration{
		Info: AdapterInfo{
			Driver:      "stub-info",
			DisplayName: "Info stub",
			Description: "registry test fixture",
		},
		Open: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
			return &stubStore{}, nil
		},
	})

	var found bool
	for _, info := range RegisteredAdapters() {
		if info.Driver == "stub-info" {
			found = true
			if info.DisplayName != "Info stub" {
				t.Errorf("DisplayName = %q, want Info stub", info.DisplayName)
			}
		}
	}
	if !found {
		t.Error("RegisteredAdapters missing stub-info")
	}
}
