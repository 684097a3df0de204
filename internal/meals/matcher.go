package meals

import (
	"context"
	"log"
	"strings"

	"github.com/familymenu/nutrition-ai/internal/ai"
	"github.com/familymenu/nutrition-ai/internal/rag"
)

// ProductMatcher resolves suggested ingredients to store products via the
// products vector index. Without a configured index it falls back to a
// small keyword table so the endpoint stays usable in development.
type ProductMatcher struct {
	embedder  ai.Embedder
	retriever rag.Retriever
	namespace string
}

func NewProductMatcher(embedder ai.Embedder, retriever rag.Retriever, namespace string) *ProductMatcher {
	return &ProductMatcher{embedder: embedder, retriever: retriever, namespace: namespace}
}

type matchResult struct {
	Available   []IngredientMatch
	Unavailable []Ingredient
}

func (m *ProductMatcher) matchIngredients(ctx context.Context, ingredients []Ingredient) matchResult {
	if m.embedder == nil || m.retriever == nil {
		return m.keywordMatch(ingredients)
	}

	var res matchResult
	for _, ing := range ingredients {
		product, ok := m.lookup(ctx, ing)
		if ok {
			res.Available = append(res.Available, IngredientMatch{Ingredient: ing, Product: product})
		} else {
			res.Unavailable = append(res.Unavailable, ing)
		}
	}
	return res
}

func (m *ProductMatcher) lookup(ctx context.Context, ing Ingredient) (Product, bool) {
	vec, err := m.embedder.Embed(ctx, ing.Name)
	if err != nil {
		log.Printf("meals: embed ingredient %q: %v", ing.Name, err)
		return Product{}, false
	}
	docs, err := m.retriever.Query(ctx, vec, 1, m.namespace)
	if err != nil {
		log.Printf("meals: product lookup %q: %v", ing.Name, err)
		return Product{}, false
	}
	if len(docs) == 0 || docs[0].Score < 0.5 {
		return Product{}, false
	}
	return Product{ID: docs[0].ID, Name: docs[0].Text}, true
}

// sample products used when no vector index is configured
var sampleProducts = map[string]Product{
	"gà":  {ID: "p001", Name: "Thịt gà tươi", Price: 75000, ImageURL: "https://example.com/chicken.jpg", ProductURL: "https://example.com/products/chicken"},
	"rau": {ID: "p002", Name: "Rau cải xanh", Price: 15000, ImageURL: "https://example.com/greens.jpg", ProductURL: "https://example.com/products/greens"},
	"tỏi": {ID: "p003", Name: "Tỏi củ", Price: 12000, ImageURL: "https://example.com/garlic.jpg", ProductURL: "https://example.com/products/garlic"},
}

func (m *ProductMatcher) keywordMatch(ingredients []Ingredient) matchResult {
	var res matchResult
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		matched := false
		for key, product := range sampleProducts {
			if strings.Contains(name, key) {
				res.Available = append(res.Available, IngredientMatch{Ingredient: ing, Product: product})
				matched = true
				break
			}
		}
		if !matched {
			res.Unavailable = append(res.Unavailable, ing)
		}
	}
	return res
}

// ProcessMeals resolves the ingredients of every suggested meal.
func (m *ProductMatcher) ProcessMeals(ctx context.Context, in []Meal) []ProcessedMeal {
	out := make([]ProcessedMeal, 0, len(in))
	for _, meal := range in {
		p := ProcessedMeal{
			Name:        meal.Name,
			Benefits:    meal.Benefits,
			Preparation: meal.Preparation,
		}
		res := m.matchIngredients(ctx, meal.Ingredients)
		p.Ingredients.Available = res.Available
		p.Ingredients.Unavailable = res.Unavailable
		out = append(out, p)
	}
	return out
}
