package validator

import "testing"

func TestValidateTableName(t *testing.T) {
	valid := []string{"orders", "Orders2", "order_items"}
	for _, name := range valid {
		if err := ValidateTableName(name); err != nil {
			t.Errorf("expected %q to be valid, got %v", name, err)
		}
	}

	invalid := []string{"", "_orders", "2orders", "order items", "orders; drop table x", "orders--"}
	for _, name := range invalid {
		if err := ValidateTableName(name); err == nil {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestValidateFieldName(t *testing.T) {
	if err := ValidateFieldName("total"); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	if err := ValidateFieldName(""); err == nil {
		t.Error("expected empty name to be invalid")
	}
	if err := ValidateFieldName("total'; select"); err == nil {
		t.Error("expected suspicious name to be invalid")
	}
}

func TestValidateAndNormalizeFieldPath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"status", true},
		{"address.city", true},
		{"items.0.sku", true},
		{"items.0.tags.1", true},
		{"", false},
		{"address..city", false},
		{".status", false},
		{"status.", false},
		{"address city", false},
		{"status'='active", false},
	}
	for _, tt := range tests {
		got, err := ValidateAndNormalizeFieldPath(tt.path)
		if tt.valid && err != nil {
			t.Errorf("path %q: expected valid, got %v", tt.path, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("path %q: expected invalid", tt.path)
		}
		if tt.valid && got != tt.path {
			t.Errorf("path %q: expected unchanged, got %q", tt.path, got)
		}
	}
}

func TestValidateAndNormalizeFieldPath_LengthLimit(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	_, err := ValidateAndNormalizeFieldPath(string(long))
	if err == nil {
		t.Error("expected error for overlong field path")
	}
}

func TestValidateFilePath(t *testing.T) {
	if err := ValidateFilePath("inventory"); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	if err := ValidateFilePath("inventory; drop"); err == nil {
		t.Error("expected invalid")
	}
}
