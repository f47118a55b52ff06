package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"store": "Tesco", "total": "£9.99"}`, false},
		{"empty strings allowed", `{"store": "", "total": ""}`, false},
		{"missing total", `{"store": "Tesco"}`, true},
		{"missing store", `{"total": "£9.99"}`, true},
		{"extra field", `{"store": "Tesco", "total": "£9.99", "tax": "1.00"}`, true},
		{"numeric total", `{"store": "Tesco", "total": 9.99}`, true},
		{"array", `["Tesco", "9.99"]`, true},
		{"not json", `store: Tesco`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFields([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
