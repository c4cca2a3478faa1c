package config

import "testing"

func TestSecondaryKey(t *testing.T) {
	tests := []struct {
		name      string
		secondary string
		key       string
		want      string
	}{
		{"shift letter collapses to uppercase", "alt+shift", "s", "alt+S"},
		{"special key keeps explicit shift", "alt+shift", "f1", "alt+shift+f1"},
		{"no shift in modifier", "ctrl", "s", "ctrl+s"},
		{"shift alone becomes bare uppercase", "shift", "a", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := &KeyBindingsConfig{Modifiers: ModifierConfig{Primary: "alt", Secondary: tt.secondary}}
			got := kb.SecondaryKey(tt.key)
			if got != tt.want {
				t.Errorf("SecondaryKey(%q): got %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestGetActionKey(t *testing.T) {
	kb := DefaultKeybindings()

	tests := []struct {
		action string
		want   string
	}{
		{"help", "alt+h"},
		{"conversation_picker", "alt+s"},
		{"settings", "alt+S"},
		{"scroll_down", "j"},
		{"scroll_to_bottom", "G"},
		{"picker_down_filtered", "alt+j"},
		{"no_such_action", ""},
	}

	for _, tt := range tests {
		got := kb.GetActionKey(tt.action)
		if got != tt.want {
			t.Errorf("GetActionKey(%q): got %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestGetActionKeyOverride(t *testing.T) {
	kb := DefaultKeybindings()
	kb.Actions = map[string]string{"quit": "ctrl+shift+q"}

	if got := kb.GetActionKey("quit"); got != "ctrl+shift+q" {
		t.Errorf("override not applied: got %q, want %q", got, "ctrl+shift+q")
	}

	// Empty override falls back to the registry default
	kb.Actions["help"] = ""
	if got := kb.GetActionKey("help"); got != "alt+h" {
		t.Errorf("empty override should fall back: got %q, want %q", got, "alt+h")
	}
}

func TestGetActionKeyCustomModifiers(t *testing.T) {
	kb := &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: "ctrl", Secondary: "ctrl+shift"},
	}

	if got := kb.GetActionKey("help"); got != "ctrl+h" {
		t.Errorf("primary modifier not applied: got %q, want %q", got, "ctrl+h")
	}
	if got := kb.GetActionKey("settings"); got != "ctrl+S" {
		t.Errorf("secondary modifier not applied: got %q, want %q", got, "ctrl+S")
	}
}

func TestDisplayActionKey(t *testing.T) {
	kb := DefaultKeybindings()

	tests := []struct {
		action string
		want   string
	}{
		{"help", "Alt+H"},
		{"settings", "Alt+Shift+S"},
		{"scroll_down", "J"},
		{"page_down", "Pgdown"},
	}

	for _, tt := range tests {
		got := kb.DisplayActionKey(tt.action)
		if got != tt.want {
			t.Errorf("DisplayActionKey(%q): got %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		primary   string
		secondary string
		wantValid bool
	}{
		{"defaults", "alt", "alt+shift", true},
		{"bare shift rejected", "shift", "alt+shift", false},
		{"ctrl allowed with warning", "ctrl", "ctrl+shift", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := &KeyBindingsConfig{Modifiers: ModifierConfig{Primary: tt.primary, Secondary: tt.secondary}}
			valid, msg := kb.Validate()
			if valid != tt.wantValid {
				t.Errorf("Validate(): got %v (%q), want %v", valid, msg, tt.wantValid)
			}
			if tt.name == "ctrl allowed with warning" && msg == "" {
				t.Error("expected a warning message for ctrl modifiers")
			}
		})
	}
}
