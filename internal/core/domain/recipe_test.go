package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRecipe() ReferenceDocument {
	return ReferenceDocument{
		ID:                  "r1",
		Title:               "Poulet au riz",
		PreparationTime:     "35 min",
		Ingredients:         []string{"poulet", "riz", "oignon"},
		Instructions:        "Faire revenir le poulet puis ajouter le riz.",
		DietTags:            []string{"sans gluten"},
		NutritionPer100g:    "150 kcal",
		NutritionPerServing: "520 kcal",
	}
}

func TestReferenceDocument_ContextText(t *testing.T) {
	text := sampleRecipe().ContextText()

	assert.Contains(t, text, "Recette : Poulet au riz")
	assert.Contains(t, text, "Temps de préparation : 35 min")
	assert.Contains(t, text, "Ingrédients : poulet, riz, oignon")
	assert.Contains(t, text, "Régimes : sans gluten")
	assert.Contains(t, text, "520 kcal")
	assert.NotContains(t, text, "\n\n")
}

func TestReferenceDocument_ContextText_SkipsEmptyFields(t *testing.T) {
	text := ReferenceDocument{ID: "r2", Title: "Soupe"}.ContextText()
	assert.Equal(t, "Recette : Soupe", text)
}

func TestReferenceDocument_EmbeddingText(t *testing.T) {
	assert.Equal(t, "Poulet au riz. poulet, riz, oignon. sans gluten", sampleRecipe().EmbeddingText())
	assert.Equal(t, "Soupe", ReferenceDocument{Title: "Soupe"}.EmbeddingText())
}

func TestReferenceDocument_Validate(t *testing.T) {
	assert.NoError(t, sampleRecipe().Validate())

	err := ReferenceDocument{Title: "x"}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidInput))

	err = ReferenceDocument{ID: "x"}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestIndexSignature_Check(t *testing.T) {
	sig := IndexSignature{Model: "hashing-v1", Dimensions: 384}

	assert.NoError(t, sig.Check(IndexSignature{Model: "hashing-v1", Dimensions: 384}))
	assert.ErrorIs(t, sig.Check(IndexSignature{Model: "hashing-v1", Dimensions: 768}), ErrIndexSignatureMismatch)
	assert.ErrorIs(t, sig.Check(IndexSignature{Model: "mistral-embed", Dimensions: 384}), ErrIndexSignatureMismatch)
	assert.True(t, IndexSignature{}.IsZero())
	assert.Equal(t, "hashing-v1/384", sig.String())
}
