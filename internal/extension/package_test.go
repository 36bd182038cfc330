package extension

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = string(body)
	}
	return files
}

func TestBuildContainsPersonalizedFiles(t *testing.T) {
	data, err := Build(Params{
		Token:  "tok.en.value",
		APIURL: "http://localhost:3000/api",
		Email:  "ana@example.com",
		UserID: 42,
	})
	require.NoError(t, err)

	files := readArchive(t, data)
	require.Len(t, files, 3)

	var manifest Manifest
	require.NoError(t, json.Unmarshal([]byte(files["manifest.json"]), &manifest))
	assert.Equal(t, 3, manifest.ManifestVersion)
	assert.Equal(t, "Ex-ZakVibe PRO (Personalized)", manifest.Name)
	assert.Equal(t, "5.0", manifest.Version)
	assert.Equal(t, []string{"storage", "activeTab", "scripting"}, manifest.Permissions)
	assert.Equal(t, []string{"*://*.amazon.com/*"}, manifest.HostPermissions)
	assert.Equal(t, "background.js", manifest.Background["service_worker"])

	bg := files["background.js"]
	assert.Contains(t, bg, `const USER_TOKEN = "tok.en.value";`)
	assert.Contains(t, bg, `const API_URL = "http://localhost:3000/api";`)
	assert.Contains(t, bg, "chrome.storage.local.set")
	assert.Contains(t, bg, "user ID: 42")

	assert.Contains(t, files["popup.html"], "Logged in as: ana@example.com")
}

func TestBuildEscapesUntrustedValues(t *testing.T) {
	data, err := Build(Params{
		Token:  `x";alert(1);"`,
		APIURL: "http://localhost:3000/api",
		Email:  "<script>alert(1)</script>@example.com",
		UserID: 1,
	})
	require.NoError(t, err)

	files := readArchive(t, data)
	assert.NotContains(t, files["popup.html"], "<script>")
	assert.Contains(t, files["popup.html"], "&lt;script&gt;")
	assert.Contains(t, files["background.js"], `const USER_TOKEN = "x\";alert(1);\"";`)
}
