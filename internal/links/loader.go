// Package links loads and normalizes the URL list a capture run operates on.
package links

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"
)

// Loader reads link-source files. A missing file, an empty list, or an
// unparsable entry is a fatal setup error for the run.
type Loader struct {
	logger arbor.ILogger
}

// NewLoader creates a link loader
func NewLoader(logger arbor.ILogger) *Loader {
	return &Loader{logger: logger}
}

// yamlLinkFile supports both a bare YAML list and a document with a
// top-level "links" key.
type yamlLinkFile struct {
	Links []string `yaml:"links"`
}

// Load reads the link source at path and returns the normalized, ordered URL
// list. Plain-text files hold one URL per line with '#' comments; .yaml/.yml
// files hold a list of URLs.
func (l *Loader) Load(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("no links file configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read links file %s: %w", path, err)
	}

	var raw []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = parseYAMLLinks(data)
	default:
		raw, err = parseTextLinks(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse links file %s: %w", path, err)
	}

	urls := make([]string, 0, len(raw))
	for i, entry := range raw {
		normalized, err := normalizeURL(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid URL at entry %d of %s: %w", i+1, path, err)
		}
		urls = append(urls, normalized)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("links file %s contains no URLs", path)
	}

	l.logger.Info().
		Str("path", path).
		Int("count", len(urls)).
		Msg("Loaded link list")

	return urls, nil
}

func parseTextLinks(data []byte) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseYAMLLinks(data []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var doc yamlLinkFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Links, nil
}

// normalizeURL trims the entry, defaults the scheme to https, and validates
// that the result parses with a host.
func normalizeURL(entry string) (string, error) {
	trimmed := strings.TrimSpace(entry)
	if trimmed == "" {
		return "", fmt.Errorf("empty entry")
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", parsed.Scheme, entry)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host in %q", entry)
	}

	return parsed.String(), nil
}
