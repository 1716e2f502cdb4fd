package whatlang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetector_Detect(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"french", "Bonjour, pouvez-vous me proposer une recette végétarienne rapide pour ce soir ?", "fr"},
		{"english", "Hello, could you suggest a quick vegetarian recipe for tonight please?", "en"},
		{"german", "Hallo, kannst du mir bitte ein schnelles vegetarisches Rezept für heute Abend empfehlen?", "de"},
		{"spanish", "Hola, ¿puedes recomendarme una receta vegetariana rápida para esta noche, por favor?", "es"},
		{"russian", "Здравствуйте, не могли бы вы предложить быстрый вегетарианский рецепт на ужин?", "ru"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, confidence := d.Detect(tt.text)
			assert.Equal(t, tt.want, code)
			assert.GreaterOrEqual(t, confidence, 0.0)
			assert.LessOrEqual(t, confidence, 1.0)
		})
	}
}

func TestDetector_NoScript(t *testing.T) {
	code, confidence := New().Detect("12345 !!! ???")
	assert.Empty(t, code)
	assert.Zero(t, confidence)
}
