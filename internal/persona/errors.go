package persona

import "errors"

var (
	// ErrMissingName is returned when a persona definition has no name
	ErrMissingName = errors.New("persona definition missing required 'name' field")

	// ErrMissingSystemPrompt is returned when a persona has no system prompt
	ErrMissingSystemPrompt = errors.New("persona definition missing system prompt (markdown body)")

	// ErrNoFrontmatter is returned when a markdown file has no frontmatter
	ErrNoFrontmatter = errors.New("persona file must start with YAML frontmatter (---)")

	// ErrInvalidFrontmatter is returned when YAML frontmatter parsing fails
	ErrInvalidFrontmatter = errors.New("invalid YAML frontmatter")

	// ErrPersonaNotFound is returned when a named persona does not exist
	ErrPersonaNotFound = errors.New("persona not found")
)
