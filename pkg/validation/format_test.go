package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{
			name:      "Valid pretty format",
			format:    "pretty",
			expectErr: false,
		},
		{
			name:      "Valid csv format",
			format:    "csv",
			expectErr: false,
		},
		{
			name:      "Valid json format",
			format:    "json",
			expectErr: false,
		},
		{
			name:      "Invalid format",
			format:    "xml",
			expectErr: true,
		},
		{
			name:      "Empty format",
			format:    "",
			expectErr: true,
		},
		{
			name:      "Case sensitive - uppercase",
			format:    "PRETTY",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("ValidateOutputFormat(%q) expected error but got none", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidateOutputFormat(%q) unexpected error: %v", tt.format, err)
			}
		})
	}
}

func TestDiscountRateWarning(t *testing.T) {
	tests := []struct {
		name        string
		rate        float64
		wantWarning bool
	}{
		{"Typical rate", 0.10, false},
		{"Lower edge", 0.01, false},
		{"Upper edge", 0.30, false},
		{"Zero rate", 0, true},
		{"Negative rate", -0.05, true},
		{"Very high rate", 0.75, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := DiscountRateWarning("Project 'A'", tt.rate)
			if (warning != "") != tt.wantWarning {
				t.Errorf("DiscountRateWarning(%v) = %q, wantWarning %v", tt.rate, warning, tt.wantWarning)
			}
		})
	}
}
