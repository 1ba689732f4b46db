package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bazlabs/baz/internal/config"
)

// Loader handles discovery and parsing of persona definitions from markdown files
type Loader struct {
	paths      []string
	globalPath string
}

// NewLoader creates a new persona loader with the given search paths
func NewLoader(paths []string) *Loader {
	globalPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		globalPath = filepath.Join(home, ".config", "baz", "personas")
	}
	return &Loader{paths: paths, globalPath: globalPath}
}

// DefaultLoader returns a loader over the standard persona search paths
func DefaultLoader() *Loader {
	return NewLoader(config.PersonaPaths())
}

// LoadAll discovers and loads all persona definitions from all configured paths
func (l *Loader) LoadAll() ([]*Definition, error) {
	var personas []*Definition

	for _, basePath := range l.paths {
		isGlobal := l.globalPath != "" && basePath == l.globalPath

		info, err := os.Stat(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing %s: %w", basePath, err)
		}
		if !info.IsDir() {
			continue
		}

		entries, err := os.ReadDir(basePath)
		if err != nil {
			return nil, fmt.Errorf("error reading directory %s: %w", basePath, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}

			filePath := filepath.Join(basePath, entry.Name())
			p, err := l.LoadFromFile(filePath)
			if err != nil {
				// A broken file should not take down the whole set.
				fmt.Fprintf(os.Stderr, "Warning: failed to load persona from %s: %v\n", filePath, err)
				continue
			}

			p.IsGlobal = isGlobal
			personas = append(personas, p)
		}
	}

	return personas, nil
}

// LoadFromFile parses a single markdown file with YAML frontmatter
func (l *Loader) LoadFromFile(filePath string) (*Definition, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	p, err := ParseMarkdown(string(content))
	if err != nil {
		return nil, err
	}

	p.FilePath = filePath
	return p, nil
}

// Resolve returns the persona with the given name, searching the configured
// paths. An empty name resolves to a user-defined "baz" persona if one
// exists, otherwise the built-in default.
func (l *Loader) Resolve(name string) (*Definition, error) {
	personas, err := l.LoadAll()
	if err != nil {
		return nil, err
	}

	lookup := name
	if lookup == "" {
		lookup = "baz"
	}
	for _, p := range personas {
		if p.Name == lookup {
			return p, nil
		}
	}

	if name == "" || name == "baz" {
		return Default(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, name)
}

// ParseMarkdown parses markdown content with YAML frontmatter into a Definition
func ParseMarkdown(content string) (*Definition, error) {
	frontmatter, body, err := parseFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var p Definition
	if err := yaml.Unmarshal([]byte(frontmatter), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}

	p.SystemPrompt = strings.TrimSpace(body)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// parseFrontmatter extracts YAML frontmatter and body from markdown content.
// Frontmatter must be enclosed in --- markers at the start of the file.
func parseFrontmatter(content string) (frontmatter, body string, err error) {
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, "---") {
		return "", "", ErrNoFrontmatter
	}

	rest := content[3:]
	rest = strings.TrimLeft(rest, "\r\n")

	endIdx := strings.Index(rest, "\n---")
	if endIdx == -1 {
		return "", "", ErrNoFrontmatter
	}

	frontmatter = strings.TrimSpace(rest[:endIdx])
	body = strings.TrimSpace(rest[endIdx+4:])

	return frontmatter, body, nil
}
