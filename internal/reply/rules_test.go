package reply

import (
	"context"
	"strings"
	"testing"
)

func TestRulesGenerate(t *testing.T) {
	r := NewRules()
	ctx := context.Background()

	tests := []struct {
		name     string
		turn     string
		wantPart string
	}{
		{"quote keyword", "hola, necesito una cotización para 20 cajas.", "cotizar"},
		{"quote keyword unaccented", "COTIZACION urgente.", "cotizar"},
		{"default reply", "hola, buenos dias.", "¿En qué puedo ayudarte?"},
		{"empty turn", "", "¿En qué puedo ayudarte?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Generate(ctx, tt.turn)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("reply %q does not contain %q", got, tt.wantPart)
			}
		})
	}
}
