package persona

// Definition describes a persona: who the agent is and which model serves it.
// The markdown body of a persona file becomes the system prompt.
type Definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Provider    string `yaml:"provider,omitempty"`
	Model       string `yaml:"model,omitempty"`

	SystemPrompt string `yaml:"-"`
	FilePath     string `yaml:"-"`
	IsGlobal     bool   `yaml:"-"`
}

// Validate checks required fields are present
func (d *Definition) Validate() error {
	if d.Name == "" {
		return ErrMissingName
	}
	if d.SystemPrompt == "" {
		return ErrMissingSystemPrompt
	}
	return nil
}

const defaultSystemPrompt = `You are a helpful assistant named Baz.
You have two tools to return a random color or return a random number.
You can only discuss the color and number tools, or make polite conversation.`

// Default returns the built-in Baz persona
func Default() *Definition {
	return &Definition{
		Name:         "baz",
		Description:  "The default Baz persona with the color and number tools",
		SystemPrompt: defaultSystemPrompt,
	}
}
