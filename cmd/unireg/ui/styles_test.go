package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")

	t.Setenv("UNIREG_DARK_MODE", "1")
	dark := DetectTheme()
	if !dark.IsDark {
		t.Fatalf("expected dark theme when UNIREG_DARK_MODE=1")
	}

	t.Setenv("UNIREG_DARK_MODE", "")
	light := DetectTheme()
	if light.IsDark {
		t.Fatalf("expected light theme when UNIREG_DARK_MODE is unset")
	}
}

func TestDetectThemeFromColorFGBG(t *testing.T) {
	t.Setenv("UNIREG_DARK_MODE", "")

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Error("background 0 should select the dark theme")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Error("background 15 should select the light theme")
	}
}
