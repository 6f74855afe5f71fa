package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/zaviye/zaviye/internal/model/persona"
)

const helpText = `Commands:
  /persona [id]              list personas or switch to one
  /regen                     ask again for the last message
  /clear                     clear this conversation
  /history                   show this conversation
  /settings                  show the persona's settings
  /set name|prompt|placeholder <value>
                             override a setting
  /reset                     restore the default settings
  /help                      show this help
  /quit                      exit`

func (a *App) handleCommand(ctx context.Context, input string) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/help", "/h":
		fmt.Fprintln(a.out, helpText)
	case "/quit", "/q", "/exit":
		return false, nil
	case "/persona", "/p":
		return true, a.cmdPersona(args)
	case "/regen", "/r":
		reply, err := a.manager.Regenerate(ctx)
		a.printOutcome(reply, err)
	case "/clear", "/c":
		a.manager.Clear()
		fmt.Fprintln(a.out, infoStyle.Render("Conversation cleared."))
		a.printSession()
	case "/history":
		a.printHistory()
	case "/settings":
		return true, a.cmdSettings()
	case "/set":
		return true, a.cmdSet(input)
	case "/reset":
		if err := a.settings.Reset(a.manager.PersonaID()); err != nil {
			return true, err
		}
		fmt.Fprintln(a.out, infoStyle.Render("Settings restored to defaults."))
	default:
		return true, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return true, nil
}

func (a *App) cmdPersona(args []string) error {
	if len(args) == 0 {
		current := a.manager.PersonaID()
		for _, p := range a.personas.List() {
			marker := "  "
			if p.ID == current {
				marker = "* "
			}
			name := p.Name
			if s, err := a.settings.Effective(p.ID); err == nil {
				name = s.Name
			}
			fmt.Fprintf(a.out, "%s%-8s %s  %s\n", marker, p.ID, name, infoStyle.Render(p.Description))
		}
		return nil
	}

	if err := a.manager.Load(strings.ToLower(args[0])); err != nil {
		return err
	}
	a.printSession()
	return nil
}

func (a *App) cmdSettings() error {
	id := a.manager.PersonaID()
	effective, err := a.settings.Effective(id)
	if err != nil {
		return err
	}
	overrides, err := a.settings.Overrides(id)
	if err != nil {
		return err
	}

	mark := func(set bool) string {
		if set {
			return infoStyle.Render(" (custom)")
		}
		return ""
	}
	fmt.Fprintf(a.out, "name:        %s%s\n", effective.Name, mark(overrides.Name != nil))
	fmt.Fprintf(a.out, "placeholder: %s%s\n", effective.Placeholder, mark(overrides.Placeholder != nil))
	fmt.Fprintf(a.out, "prompt:%s\n%s\n", mark(overrides.Prompt != nil), effective.Prompt)
	return nil
}

// cmdSet keeps the value verbatim after the field name so prompts may
// contain any spacing.
func (a *App) cmdSet(input string) error {
	rest := strings.TrimSpace(strings.TrimPrefix(input, strings.Fields(input)[0]))
	field, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)
	if field == "" || value == "" {
		return fmt.Errorf("usage: /set name|prompt|placeholder <value>")
	}

	var partial persona.Override
	switch strings.ToLower(field) {
	case "name":
		partial.Name = &value
	case "prompt":
		partial.Prompt = &value
	case "placeholder":
		partial.Placeholder = &value
	default:
		return fmt.Errorf("unknown setting %q", field)
	}

	if err := a.settings.Update(a.manager.PersonaID(), partial); err != nil {
		return err
	}
	fmt.Fprintln(a.out, infoStyle.Render(fmt.Sprintf("Updated %s.", strings.ToLower(field))))
	return nil
}
