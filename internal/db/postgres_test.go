package db

import (
	"testing"

	"github.com/ffnexus/incident-watch/internal/config"
)

func TestBuildPostgresURL(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PostgresConfig
		want    string
		wantErr bool
	}{
		{
			name: "database-url-wins",
			cfg:  config.PostgresConfig{DatabaseURL: "postgres://u@db/x", User: "ignored", Database: "ignored"},
			want: "postgres://u@db/x",
		},
		{
			name: "parts-with-defaults",
			cfg:  config.PostgresConfig{User: "watch", Database: "incidents"},
			want: "postgres://watch@localhost:5432/incidents?sslmode=disable",
		},
		{
			name: "parts-with-password",
			cfg:  config.PostgresConfig{Host: "pg", Port: "6543", User: "watch", Password: "s3cr3t", Database: "incidents", SSLMode: "require"},
			want: "postgres://watch:s3cr3t@pg:6543/incidents?sslmode=require",
		},
		{
			name:    "missing-database",
			cfg:     config.PostgresConfig{User: "watch"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildPostgresURL(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("buildPostgresURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
