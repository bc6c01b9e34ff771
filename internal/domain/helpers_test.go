package domain_test

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func writeJar(t *testing.T, fs afero.Fs, path, name, content string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}
