package domain

import (
	"fmt"
	"strings"
)

// ReferenceDocument is a recipe from the offline reference dataset.
// Documents are loaded once at bootstrap and never mutated afterwards.
type ReferenceDocument struct {
	// ID uniquely identifies the recipe within the dataset.
	ID string `json:"id"`

	// Title is the recipe name shown to the user.
	Title string `json:"title"`

	// PreparationTime is the free-form preparation time (e.g. "25 min").
	PreparationTime string `json:"preparation_time,omitempty"`

	// Ingredients lists the ingredients in dataset order.
	Ingredients []string `json:"ingredients,omitempty"`

	// Instructions holds the preparation steps.
	Instructions string `json:"instructions,omitempty"`

	// DietTags lists diet labels such as "végétarien" or "sans gluten".
	DietTags []string `json:"diet_tags,omitempty"`

	// NutritionPer100g is the nutrition summary per 100 grams.
	NutritionPer100g string `json:"nutrition_per_100g,omitempty"`

	// NutritionPerServing is the nutrition summary per serving.
	NutritionPerServing string `json:"nutrition_per_serving,omitempty"`
}

// EmbeddingText returns the text embedded for this recipe when no
// precomputed embedding is available.
func (d ReferenceDocument) EmbeddingText() string {
	parts := []string{d.Title}
	if len(d.Ingredients) > 0 {
		parts = append(parts, strings.Join(d.Ingredients, ", "))
	}
	if len(d.DietTags) > 0 {
		parts = append(parts, strings.Join(d.DietTags, ", "))
	}
	return strings.Join(parts, ". ")
}

// ContextText renders the recipe for inclusion in a grounding prompt.
// The title always appears verbatim on the first line.
func (d ReferenceDocument) ContextText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recette : %s\n", d.Title)
	if d.PreparationTime != "" {
		fmt.Fprintf(&b, "Temps de préparation : %s\n", d.PreparationTime)
	}
	if len(d.Ingredients) > 0 {
		fmt.Fprintf(&b, "Ingrédients : %s\n", strings.Join(d.Ingredients, ", "))
	}
	if d.Instructions != "" {
		fmt.Fprintf(&b, "Instructions : %s\n", d.Instructions)
	}
	if len(d.DietTags) > 0 {
		fmt.Fprintf(&b, "Régimes : %s\n", strings.Join(d.DietTags, ", "))
	}
	if d.NutritionPer100g != "" {
		fmt.Fprintf(&b, "Valeurs nutritionnelles (100 g) : %s\n", d.NutritionPer100g)
	}
	if d.NutritionPerServing != "" {
		fmt.Fprintf(&b, "Valeurs nutritionnelles (portion) : %s\n", d.NutritionPerServing)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Validate checks the document has the fields required for indexing.
func (d ReferenceDocument) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: recipe id is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: recipe %s has no title", ErrInvalidInput, d.ID)
	}
	return nil
}
