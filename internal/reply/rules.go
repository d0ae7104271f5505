// Package reply provides the reply-generation backends: a keyword rules
// engine for deployments without an LLM, and an OpenAI-compatible client.
package reply

import (
	"context"
	"strings"
)

// Rules is the keyword-matching fallback generator.
type Rules struct{}

// NewRules creates the rules generator.
func NewRules() *Rules { return &Rules{} }

// Generate matches the turn text against keyword rules. Never fails.
func (r *Rules) Generate(_ context.Context, turnText string) (string, error) {
	lower := strings.ToLower(turnText)
	for _, kw := range []string{"cotizacion", "cotización"} {
		if strings.Contains(lower, kw) {
			return "¡Claro! Para cotizar, dime: producto/servicio, cantidad y ciudad de entrega.", nil
		}
	}
	return "¡Gracias! ¿En qué puedo ayudarte?", nil
}
