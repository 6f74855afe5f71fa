package persona

import "errors"

// ErrUnknownPersona is returned for identifiers outside the fixed catalog.
var ErrUnknownPersona = errors.New("unknown persona")

const (
	Glitch = "glitch"
	Blame  = "blame"
	Reson  = "reson"
)

// Persona captures a chat identity exposed to the frontend.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Prompt      string `json:"-"`
	Placeholder string `json:"placeholder,omitempty"`
	Intro       string `json:"intro"`
	Description string `json:"description,omitempty"`
}

// Settings is the user-editable part of a persona.
type Settings struct {
	Name        string `json:"name"`
	Prompt      string `json:"prompt"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Override is a partial Settings. Nil fields fall through to the defaults.
type Override struct {
	Name        *string `json:"name,omitempty"`
	Prompt      *string `json:"prompt,omitempty"`
	Placeholder *string `json:"placeholder,omitempty"`
}

// Settings returns the built-in settings of the persona.
func (p Persona) Settings() Settings {
	return Settings{Name: p.Name, Prompt: p.Prompt, Placeholder: p.Placeholder}
}

// IsZero reports whether the override carries no field.
func (o Override) IsZero() bool {
	return o.Name == nil && o.Prompt == nil && o.Placeholder == nil
}

// Merge layers other on top of o, other's fields winning.
func (o Override) Merge(other Override) Override {
	if other.Name != nil {
		o.Name = other.Name
	}
	if other.Prompt != nil {
		o.Prompt = other.Prompt
	}
	if other.Placeholder != nil {
		o.Placeholder = other.Placeholder
	}
	return o
}

// Apply shallow-merges the override onto base.
func (o Override) Apply(base Settings) Settings {
	if o.Name != nil {
		base.Name = *o.Name
	}
	if o.Prompt != nil {
		base.Prompt = *o.Prompt
	}
	if o.Placeholder != nil {
		base.Placeholder = *o.Placeholder
	}
	return base
}

// Seed provides the three built-in personas.
func Seed() []Persona {
	return []Persona{
		{
			ID:          Glitch,
			Name:        "Glitch",
			Prompt:      glitchPrompt,
			Placeholder: "Enter formal text to convert...",
			Intro:       "Transform formal text into authentic internet speak. Drop your text here and watch it become natural, conversational, and real.",
			Description: "Glitch converts formal or technical text into casual internet speech while keeping the original meaning. Add '+emotion' for expressive output, '+formal' to keep a professional undertone, or '+variants=3' for multiple options.",
		},
		{
			ID:          Blame,
			Name:        "Blame",
			Prompt:      blamePrompt,
			Placeholder: "Paste git status, changed files, and a description...",
			Intro:       "Craft professional git commits that follow best practices. Share your changes and get perfectly formatted commit messages.",
			Description: "Blame writes git commit messages following the Conventional Commits format. Paste git status output, the changed files and a description of the work.",
		},
		{
			ID:          Reson,
			Name:        "Reson",
			Prompt:      resonPrompt,
			Placeholder: "Enter words to pronounce, e.g., onomatopoeia, ambiguous",
			Intro:       "Master pronunciation of any English word. Type words in {curly braces} for detailed pronunciation guides.",
			Description: "Reson explains how to pronounce English words using plain letters, no phonetic symbols. Wrap words in {curly braces} to get syllables, stress and practice tips.",
		},
	}
}
