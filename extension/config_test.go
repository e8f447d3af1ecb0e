package extension

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/feeledger/store/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	got := mergeWithDefaults(Config{Currency: "usd", TrendMonths: -1})
	want := Config{
		Currency:      "usd",
		Timezone:      "Local",
		TrendMonths:   6,
		PluginTimeout: 5 * time.Second,
		Driver:        DriverPostgres,
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMergeConfigurations(t *testing.T) {
	tests := []struct {
		name         string
		yaml         Config
		programmatic Config
		want         Config
	}{
		{
			name:         "yaml wins",
			yaml:         Config{Currency: "eur", Timezone: "UTC", TrendMonths: 12, Driver: DriverSQLite},
			programmatic: Config{Currency: "usd", Timezone: "Asia/Kolkata", TrendMonths: 3, Driver: DriverMongo},
			want: Config{
				Currency:      "eur",
				Timezone:      "UTC",
				TrendMonths:   12,
				PluginTimeout: 5 * time.Second,
				Driver:        DriverSQLite,
			},
		},
		{
			name:         "programmatic fills gaps",
			yaml:         Config{Currency: "eur"},
			programmatic: Config{Timezone: "UTC", PluginTimeout: time.Second},
			want: Config{
				Currency:      "eur",
				Timezone:      "UTC",
				TrendMonths:   6,
				PluginTimeout: time.Second,
				Driver:        DriverPostgres,
			},
		},
		{
			name:         "programmatic flags override",
			yaml:         Config{},
			programmatic: Config{DisableMigrate: true, UseFallbackSchedule: true},
			want: Config{
				DisableMigrate:      true,
				Currency:            "inr",
				Timezone:            "Local",
				TrendMonths:         6,
				PluginTimeout:       5 * time.Second,
				Driver:              DriverPostgres,
				UseFallbackSchedule: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeConfigurations(tt.yaml, tt.programmatic); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name    string
		want    *time.Location
		wantErr bool
	}{
		{"", time.Local, false},
		{"Local", time.Local, false},
		{"UTC", time.UTC, false},
		{"Not/AZone", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadLocation(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewGroveStoreUnknownDriver(t *testing.T) {
	if _, err := newGroveStore("cassandra", nil); err == nil {
		t.Error("expected an unknown driver to fail")
	}
}

func TestOptions(t *testing.T) {
	e := New(
		WithCurrency("usd"),
		WithTimezone("UTC"),
		WithTrendMonths(3),
		WithDriver(DriverMongo),
		WithDisableMigrate(),
		WithFallbackSchedule(),
	)

	want := Config{
		DisableMigrate:      true,
		Currency:            "usd",
		Timezone:            "UTC",
		TrendMonths:         3,
		Driver:              DriverMongo,
		UseFallbackSchedule: true,
	}
	if e.config != want {
		t.Errorf("got %+v, want %+v", e.config, want)
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 6 {
		t.Errorf("engine options: got %d, want 6", len(opts))
	}
}

func TestFirestoreDriverNeedsApp(t *testing.T) {
	e := New(WithDriver(DriverFirestore))
	if err := e.resolveStore(context.Background()); err == nil {
		t.Error("expected the firestore driver without a Firebase app to fail")
	}
	if e.store != nil {
		t.Errorf("store: got %T, want none", e.store)
	}
}

func TestExplicitStoreWinsOverDriver(t *testing.T) {
	s := memory.New()
	e := New(WithStore(s), WithDriver(DriverFirestore))
	if err := e.resolveStore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.store != s {
		t.Errorf("store: got %T, want the explicit store", e.store)
	}
}
