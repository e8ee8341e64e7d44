package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerConfigURL(t *testing.T) {
	tt := []struct {
		name   string
		server ServerConfig
		want   string
	}{
		{
			name:   "Dev port",
			server: ServerConfig{Scheme: "http", Host: "localhost", Port: "4000"},
			want:   "http://localhost:4000",
		},
		{
			name:   "Default http port elided",
			server: ServerConfig{Scheme: "http", Host: "bizcard.example.com", Port: "80"},
			want:   "http://bizcard.example.com",
		},
		{
			name:   "Default https port elided",
			server: ServerConfig{Scheme: "https", Host: "bizcard.example.com", Port: "443"},
			want:   "https://bizcard.example.com",
		},
		{
			name:   "Non-default https port",
			server: ServerConfig{Scheme: "https", Host: "bizcard.example.com", Port: "8443"},
			want:   "https://bizcard.example.com:8443",
		},
	}

	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.server.URL())
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	s := ServerConfig{Scheme: "http", Host: "localhost", Port: "4000"}
	assert.Equal(t, "localhost:4000", s.Addr())
}
