package errors

import (
	"strings"
	"testing"
)

func TestValidateSpeciesID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"extraction form", "forestry.speciesCommon", false},
		{"public form", "Forestry:Common", false},
		{"public form with space", "MagicBees:Time Warp", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 300), true},
		{"slash", "forestry/common", true},
		{"backslash", "forestry\\common", true},
		{"control char", "forestry.\x01common", true},
		{"newline", "forestry.\ncommon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpeciesID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpeciesID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidRecord) {
				t.Errorf("ValidateSpeciesID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidRecord)
			}
		})
	}
}

func TestValidateModName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"Forestry", false},
		{"ExtraBees", false},
		{"GregTech", false},
		{"", true},
		{"Extra Bees", true},
		{"1Mod", true},
		{"Mod:Name", true},
	}

	for _, tt := range tests {
		err := ValidateModName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateModName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"forestry", false},
		{"magic_bees", false},
		{"gt5", false},
		{"", true},
		{"Forestry", true},
		{"extra.bees", true},
	}

	for _, tt := range tests {
		err := ValidateNamespace(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateNamespace(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
