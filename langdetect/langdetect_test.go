package langdetect

import "testing"

func TestDetect(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "the quick brown fox jumps over the lazy dog", "en"},
		{"japanese", "今日はいい天気ですね、散歩に行きましょう", "ja"},
		{"spanish", "el rápido zorro marrón salta sobre el perro perezoso", "es"},
		{"too short", "ok", ""},
		{"whitespace only", "   \n\t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.text)
			if got.Code != tt.want {
				t.Errorf("Detect(%q).Code = %q, want %q", tt.text, got.Code, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"ja", "Japanese"},
		{"not-a-code!", "not-a-code!"},
	}
	for _, tt := range tests {
		if got := displayName(tt.code); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
