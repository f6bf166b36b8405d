package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Env
		wantErr bool
	}{
		{
			name: "unset",
			env:  map[string]string{},
			want: Env{},
		},
		{
			name: "all set",
			env:  map[string]string{"IOMETER_HOST": "192.168.1.100", "IOMETER_TIMEOUT": "3s", "IOMETER_LOG_LEVEL": "debug"},
			want: Env{Host: "192.168.1.100", Timeout: 3 * time.Second, LogLevel: "debug"},
		},
		{
			name:    "bad duration",
			env:     map[string]string{"IOMETER_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "negative duration",
			env:     map[string]string{"IOMETER_TIMEOUT": "-1s"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t, "IOMETER_HOST", "IOMETER_TIMEOUT", "IOMETER_LOG_LEVEL")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			env, err := LoadEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatal("LoadEnv() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadEnv() error = %v", err)
			}
			if *env != tt.want {
				t.Errorf("LoadEnv() = %+v, want %+v", *env, tt.want)
			}
		})
	}
}

func TestEnvUsage(t *testing.T) {
	usage, err := EnvUsage()
	if err != nil {
		t.Fatalf("EnvUsage() error = %v", err)
	}
	for _, name := range []string{"IOMETER_HOST", "IOMETER_TIMEOUT", "IOMETER_LOG_LEVEL"} {
		if !strings.Contains(usage, name) {
			t.Errorf("EnvUsage() missing %s:\n%s", name, usage)
		}
	}
}

// unsetEnv removes keys for the duration of the test
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
