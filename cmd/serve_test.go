package cmd

import "testing"

func TestEnvPortOverride(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		fallback int
		want     int
	}{
		{"unset keeps flag value", "", 8080, 8080},
		{"valid port wins", "9090", 8080, 9090},
		{"garbage keeps flag value", "eighty", 8080, 8080},
		{"trailing junk keeps flag value", "8081xyz", 8080, 8080},
		{"zero keeps flag value", "0", 8080, 8080},
		{"negative keeps flag value", "-1", 8080, 8080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WEB_PORT", tt.env)
			if got := envPortOverride(tt.fallback); got != tt.want {
				t.Errorf("envPortOverride(%d) with WEB_PORT=%q = %d, want %d",
					tt.fallback, tt.env, got, tt.want)
			}
		})
	}
}
