// Package terminal configures the host terminal so Shift+Enter inserts a
// newline in the chat composer. The composer treats Alt+Enter as newline;
// each supported terminal is taught to send that sequence for Shift+Enter.
package terminal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NewlineSequence is what Alt+Enter sends: ESC followed by CR.
const NewlineSequence = "\x1b\r"

// Kind identifies a terminal emulator.
type Kind string

const (
	KindVSCode    Kind = "vscode"
	KindWarp      Kind = "warp"
	KindAlacritty Kind = "alacritty"
	KindApple     Kind = "apple"
	KindUnknown   Kind = ""
)

// Detect guesses the terminal from the environment.
func Detect(getenv func(string) string) Kind {
	switch getenv("TERM_PROGRAM") {
	case "vscode":
		return KindVSCode
	case "WarpTerminal":
		return KindWarp
	case "Apple_Terminal":
		return KindApple
	}
	if getenv("ALACRITTY_SOCKET") != "" || getenv("TERM") == "alacritty" {
		return KindAlacritty
	}
	return KindUnknown
}

// State records whether setup has been offered, stored as terminal.json in
// the servicesaver home directory.
type State struct {
	Completed bool `json:"completed"`
	Declined  bool `json:"declined"`
	Kind      Kind `json:"kind"`
}

const stateFile = "terminal.json"

// LoadState reads the setup state under dir. A missing file is an empty
// state.
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if errors.Is(err, os.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading terminal state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing terminal state: %w", err)
	}
	return &s, nil
}

// SaveState writes the setup state under dir.
func SaveState(dir string, s *State) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0600)
}

// Result describes what a setup run did.
type Result struct {
	Configured   bool
	Message      string
	NeedsRestart bool
	ConfigPath   string
}

// Configurator edits terminal config files under a user home directory.
type Configurator struct {
	Home string
}

// NewConfigurator returns a Configurator for the current user.
func NewConfigurator() (*Configurator, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating home directory: %w", err)
	}
	return &Configurator{Home: home}, nil
}

// Setup configures the given terminal.
func (c *Configurator) Setup(kind Kind) (*Result, error) {
	switch kind {
	case KindVSCode:
		return c.vscode()
	case KindWarp:
		return c.warp()
	case KindAlacritty:
		return c.alacritty()
	case KindApple:
		return &Result{
			Message: "Terminal.app cannot be configured automatically.\n\n" +
				"Enable Settings > Profiles > Keyboard > \"Use Option as Meta Key\"\n" +
				"and use Option+Enter for newlines.",
		}, nil
	default:
		return &Result{
			Message: "No automatic setup for this terminal. Use Alt+Enter or Ctrl+J for newlines.",
		}, nil
	}
}

func (c *Configurator) vscode() (*Result, error) {
	var target string
	for _, p := range []string{
		filepath.Join(c.Home, "Library", "Application Support", "Code", "User", "keybindings.json"),
		filepath.Join(c.Home, ".config", "Code", "User", "keybindings.json"),
		filepath.Join(c.Home, "AppData", "Roaming", "Code", "User", "keybindings.json"),
		filepath.Join(c.Home, "Library", "Application Support", "Cursor", "User", "keybindings.json"),
		filepath.Join(c.Home, ".config", "Cursor", "User", "keybindings.json"),
	} {
		if _, err := os.Stat(filepath.Dir(p)); err == nil {
			target = p
			break
		}
	}
	if target == "" {
		return &Result{Message: "Could not find a VS Code user directory"}, nil
	}

	var bindings []map[string]any
	if data, err := os.ReadFile(target); err == nil {
		if err := json.Unmarshal([]byte(stripJSONComments(string(data))), &bindings); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", target, err)
		}
	}

	for _, b := range bindings {
		if b["key"] == "shift+enter" && b["command"] == "workbench.action.terminal.sendSequence" {
			return &Result{Configured: true, Message: "Shift+Enter is already configured", ConfigPath: target}, nil
		}
	}

	bindings = append(bindings, map[string]any{
		"key":     "shift+enter",
		"command": "workbench.action.terminal.sendSequence",
		"args":    map[string]string{"text": NewlineSequence},
		"when":    "terminalFocus",
	})
	out, err := json.MarshalIndent(bindings, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, out, 0644); err != nil {
		return nil, err
	}
	return &Result{Configured: true, Message: "VS Code keybinding added", NeedsRestart: true, ConfigPath: target}, nil
}

func (c *Configurator) warp() (*Result, error) {
	target := filepath.Join(c.Home, ".warp", "keybindings.yaml")
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, err
	}

	var bindings []map[string]any
	if data, err := os.ReadFile(target); err == nil {
		if err := yaml.Unmarshal(data, &bindings); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", target, err)
		}
	}

	for _, b := range bindings {
		if b["key"] == "shift-enter" {
			return &Result{Configured: true, Message: "Shift+Enter is already configured", ConfigPath: target}, nil
		}
	}

	bindings = append(bindings, map[string]any{
		"key":    "shift-enter",
		"action": "send_text",
		"text":   NewlineSequence,
	})
	out, err := yaml.Marshal(bindings)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, out, 0644); err != nil {
		return nil, err
	}
	return &Result{Configured: true, Message: "Warp keybinding added", NeedsRestart: true, ConfigPath: target}, nil
}

const alacrittyBinding = `
# servicesaver: Shift+Enter inserts a newline
[[keyboard.bindings]]
key = "Return"
mods = "Shift"
chars = "\u001b\r"
`

func (c *Configurator) alacritty() (*Result, error) {
	target := filepath.Join(c.Home, ".config", "alacritty", "alacritty.toml")
	if alt := filepath.Join(c.Home, ".alacritty.toml"); fileExists(alt) && !fileExists(target) {
		target = alt
	}

	data, err := os.ReadFile(target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	content := string(data)
	if strings.Contains(content, `key = "Return"`) && strings.Contains(content, `mods = "Shift"`) {
		return &Result{Configured: true, Message: "Shift+Enter is already configured", ConfigPath: target}, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(target, []byte(content+alacrittyBinding), 0644); err != nil {
		return nil, err
	}
	return &Result{Configured: true, Message: "Alacritty keybinding added", NeedsRestart: true, ConfigPath: target}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// stripJSONComments drops // and /* */ comments outside strings.
func stripJSONComments(in string) string {
	var b strings.Builder
	inString, escaped := false, false
	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if ch == '/' && i+1 < len(in) {
			switch in[i+1] {
			case '/':
				for i < len(in) && in[i] != '\n' {
					i++
				}
				if i < len(in) {
					b.WriteByte('\n')
				}
				continue
			case '*':
				end := strings.Index(in[i+2:], "*/")
				if end < 0 {
					return b.String()
				}
				i += end + 3
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}
