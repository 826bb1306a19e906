package datepicker

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/tartampluch/go-dob/internal/config"
)

// BundleManifest describes a picker bundle written by DirAdapter.
type BundleManifest struct {
	Selector    string   `json:"selector"`
	DateFormat  string   `json:"dateFormat"`
	Stylesheets []string `json:"stylesheets"`
	Scripts     []string `json:"scripts"`
}

// DirAdapter installs assets as files in Dir, so hosts without outbound access can
// serve the picker locally. Attach writes the manifest; a static bundle has no live
// selection, so onSelect is not retained.
type DirAdapter struct {
	Dir string

	mu       sync.Mutex
	manifest BundleManifest
}

// Install writes body under the asset's base file name.
func (a *DirAdapter) Install(asset Asset, body []byte) error {
	name, err := assetFileName(asset.URL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.Dir, config.DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}
	if err := os.WriteFile(filepath.Join(a.Dir, name), body, config.FilePermUserRW); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	switch asset.Kind {
	case config.AssetKindStylesheet:
		a.manifest.Stylesheets = append(a.manifest.Stylesheets, name)
	default:
		a.manifest.Scripts = append(a.manifest.Scripts, name)
	}
	return nil
}

// Attach writes the bundle manifest.
func (a *DirAdapter) Attach(selector string, _ func(value string)) error {
	a.mu.Lock()
	m := a.manifest
	a.mu.Unlock()

	m.Selector = selector
	m.DateFormat = config.PickerDateFormat

	data, err := json.MarshalIndent(m, "", config.FormatJSONIndent)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrJSONEncode, err)
	}
	return os.WriteFile(filepath.Join(a.Dir, config.BundleManifestFile), data, config.FilePermUserRW)
}

// Manifest returns what has been installed so far.
func (a *DirAdapter) Manifest() BundleManifest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.manifest
}

func assetFileName(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("%s: %s", config.ErrInvalidURL, raw)
	}
	return name, nil
}
