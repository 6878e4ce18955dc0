package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		allowed   []string
		boolFlags []string
		want      []string
	}{
		{
			name:    "short flag with separate value",
			args:    []string{"-c", "conf.json", "-a", "192.168.1.20:24900"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "double dash matches single dash name",
			args:    []string{"--config=alt.json", "-a", "relay"},
			allowed: []string{"-c", "-config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "order preserved",
			args:    []string{"--config=first.json", "-c", "second.json", "-x", "1"},
			allowed: []string{"-c", "-config"},
			want:    []string{"--config=first.json", "-c", "second.json"},
		},
		{
			name:    "unknown flags and positionals ignored",
			args:    []string{"-x", "1", "--y=2", "positional", "--", "-"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "flag without value at end is kept",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next dash token is not a value",
			args:    []string{"-c", "-notvalue"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:      "bool flag never swallows the next token",
			args:      []string{"-auto", "stray", "-a", "relay:24900"},
			allowed:   []string{"-auto", "-a"},
			boolFlags: []string{"-auto"},
			want:      []string{"-auto", "-a", "relay:24900"},
		},
		{
			name:      "bool flag with explicit value",
			args:      []string{"-auto=false"},
			allowed:   []string{"-auto"},
			boolFlags: []string{"auto"},
			want:      []string{"-auto=false"},
		},
		{
			name:    "empty args",
			args:    []string{},
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed, tt.boolFlags...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-a", "relay", "-c", "clipsync.json"}, "clipsync.json"},
		{"long with equals", []string{"--config=/etc/clipsync.json"}, "/etc/clipsync.json"},
		{"last wins", []string{"-c", "a.json", "-config", "b.json"}, "b.json"},
		{"absent", []string{"-a", "relay"}, ""},
		{"no args", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
