package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Lighting", "lighting"},
		{"two words", "Living Room", "living-room"},
		{"punctuation", "Rock & Roll, Baby!", "rock-roll-baby"},
		{"accents folded", "Café Décor", "cafe-decor"},
		{"leading and trailing junk", "  --Nordic Jute Runner--  ", "nordic-jute-runner"},
		{"digits kept", "Nest 3-in-1 Tables", "nest-3-in-1-tables"},
		{"non latin dropped", "Lamp 灯", "lamp"},
		{"only symbols", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateIsCaseInsensitive(t *testing.T) {
	if Generate("Lighting") != Generate("LIGHTING") {
		t.Fatal("slugs of names differing only in case must collide")
	}
}
