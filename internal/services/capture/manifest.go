package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/captura/internal/models"
)

const manifestFileName = "manifest.json"

// linkManifest summarizes a captured link from its desktop document.
type linkManifest struct {
	URL         string              `json:"url"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	CapturedAt  time.Time           `json:"captured_at"`
	Variants    []models.DeviceKind `json:"variants"`
}

// writeManifest parses the desktop HTML artifact and writes a manifest.json
// alongside the variant directories. Called only after every variant of the
// link succeeded.
func writeManifest(linkDir, rawURL, desktopHTMLPath string, variants []models.DeviceKind) error {
	f, err := os.Open(desktopHTMLPath)
	if err != nil {
		return fmt.Errorf("failed to open desktop HTML for manifest: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("failed to parse desktop HTML for manifest: %w", err)
	}

	manifest := linkManifest{
		URL:        rawURL,
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		CapturedAt: time.Now().UTC(),
		Variants:   variants,
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		manifest.Description = strings.TrimSpace(desc)
	} else if desc, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		manifest.Description = strings.TrimSpace(desc)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(linkDir, manifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
