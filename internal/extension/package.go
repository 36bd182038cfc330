// Package extension builds the personalized browser extension archive handed to each user.
package extension

import (
	"archive/zip"   // Archive writer
	"bytes"         // In-memory buffer
	"html/template" // Escaped popup markup
	"strconv"       // Id formatting
	"strings"       // Template output
	"time"          // Stable entry timestamps

	"github.com/goccy/go-json" // Manifest and literal encoding
)

// Filename is the attachment name of the generated archive
const Filename = "ex_zakvibe_pro.zip"

// Manifest of the generated extension
type Manifest struct {
	ManifestVersion int               `json:"manifest_version"`
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Permissions     []string          `json:"permissions"`
	HostPermissions []string          `json:"host_permissions"`
	Background      map[string]string `json:"background"`
	Action          map[string]string `json:"action"`
}

// DefaultManifest is the fixed MV3 manifest shipped in every package
func DefaultManifest() Manifest {
	return Manifest{
		ManifestVersion: 3,
		Name:            "Ex-ZakVibe PRO (Personalized)",
		Version:         "5.0",
		Permissions:     []string{"storage", "activeTab", "scripting"},
		HostPermissions: []string{"*://*.amazon.com/*"},
		Background:      map[string]string{"service_worker": "background.js"},
		Action:          map[string]string{"default_popup": "popup.html"},
	}
}

// Params personalize a package
type Params struct {
	Token  string // Token stored by the extension on install
	APIURL string // Backend the extension talks to
	Email  string // Shown in the popup
	UserID uint   // Logged on install
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<h1>Ex-ZakVibe Active</h1><p>Logged in as: {{.}}</p>`,
))

// Build renders the three extension files and zips them
func Build(p Params) ([]byte, error) {
	manifest, err := json.MarshalIndent(DefaultManifest(), "", "  ")
	if err != nil {
		return nil, err
	}
	background, err := backgroundScript(p)
	if err != nil {
		return nil, err
	}
	var popup strings.Builder
	if err := popupTmpl.Execute(&popup, p.Email); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct {
		name string
		body []byte
	}{
		{"manifest.json", manifest},
		{"background.js", []byte(background)},
		{"popup.html", []byte(popup.String())},
	}
	modified := time.Now().UTC()
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// backgroundScript embeds the token and API URL as JSON string literals so that
// neither can break out of the script
func backgroundScript(p Params) (string, error) {
	token, err := json.Marshal(p.Token)
	if err != nil {
		return "", err
	}
	apiURL, err := json.Marshal(p.APIURL)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("const USER_TOKEN = " + string(token) + ";\n")
	b.WriteString("const API_URL = " + string(apiURL) + ";\n\n")
	b.WriteString("chrome.runtime.onInstalled.addListener(() => {\n")
	b.WriteString("  chrome.storage.local.set({ authToken: USER_TOKEN, apiUrl: API_URL });\n")
	b.WriteString("  console.log('Ex-ZakVibe Authorized for user ID: " + strconv.FormatUint(uint64(p.UserID), 10) + "');\n")
	b.WriteString("});\n")
	return b.String(), nil
}
