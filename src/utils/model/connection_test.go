package model

import (
	"os"
	"strings"
	"testing"

	"github.com/blockwork-protocol/marketplace/src/utils/config"

	"github.com/stretchr/testify/require"
)

func TestConnectionString(t *testing.T) {
	dsn := connectionString(&config.Database{
		Host:    "db.local",
		Port:    6432,
		Name:    "marketplace",
		SslMode: "require",
	}, "api", "secret", "server")

	require.Equal(t, "host=db.local port=6432 user=api password=secret dbname=marketplace sslmode=require application_name=marketplace/server", dsn)
}

func TestWriteCertificatesSkipsPartialConfig(t *testing.T) {
	params, cleanup, err := writeCertificates(&config.Database{ClientKey: "key", ClientCert: "cert"})
	require.Nil(t, err)
	require.Empty(t, params)
	require.NotPanics(t, cleanup)
}

func TestWriteCertificates(t *testing.T) {
	params, cleanup, err := writeCertificates(&config.Database{
		ClientKey:  "KEY",
		ClientCert: "CERT",
		CaCert:     "CA",
	})
	require.Nil(t, err)

	files := map[string]string{}
	for _, part := range strings.Fields(params) {
		kv := strings.SplitN(part, "=", 2)
		require.Len(t, kv, 2)
		files[kv[0]] = kv[1]
	}
	require.Len(t, files, 3)

	for param, expected := range map[string]string{"sslcert": "CERT", "sslkey": "KEY", "sslrootcert": "CA"} {
		content, err := os.ReadFile(files[param])
		require.Nil(t, err, param)
		require.Equal(t, expected, string(content), param)
	}

	cleanup()
	for _, name := range files {
		_, err := os.Stat(name)
		require.True(t, os.IsNotExist(err), name)
	}
}
