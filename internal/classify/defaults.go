package classify

import "inventory-engine/internal/models"

// DefaultPatterns is the built-in classification table, ordered by
// priority: more specific patterns come before generic ones so that e.g.
// "chocolate sauce" hits the sauce rule before any topping rule could.
var DefaultPatterns = []Pattern{
	{Substring: "sauce", Categories: []models.ItemCategory{models.CategoryClassicSauce, models.CategoryPremiumSauce}},
	{Substring: "syrup", Categories: []models.ItemCategory{models.CategoryClassicSauce, models.CategoryPremiumSauce}},
	{Substring: "jam", Categories: []models.ItemCategory{models.CategoryClassicSauce, models.CategoryPremiumSauce}},
	{Substring: "spread", Categories: []models.ItemCategory{models.CategoryPremiumSauce}},
	{Substring: "nutella", Categories: []models.ItemCategory{models.CategoryPremiumSauce}},
	{Substring: "topping", Categories: []models.ItemCategory{models.CategoryClassicTopping, models.CategoryPremiumTopping}},
	{Substring: "sprinkle", Categories: []models.ItemCategory{models.CategoryClassicTopping}},
	{Substring: "marshmallow", Categories: []models.ItemCategory{models.CategoryClassicTopping}},
	{Substring: "flakes", Categories: []models.ItemCategory{models.CategoryClassicTopping, models.CategoryPremiumTopping}},
	{Substring: "peanut", Categories: []models.ItemCategory{models.CategoryClassicTopping}},
	{Substring: "oreo", Categories: []models.ItemCategory{models.CategoryPremiumTopping, models.CategoryBiscuit}},
	{Substring: "kitkat", Categories: []models.ItemCategory{models.CategoryPremiumTopping}},
	{Substring: "biscoff", Categories: []models.ItemCategory{models.CategoryBiscuit, models.CategoryPremiumSauce}},
	{Substring: "biscuit", Categories: []models.ItemCategory{models.CategoryBiscuit}},
	{Substring: "wafer", Categories: []models.ItemCategory{models.CategoryBiscuit}},
	{Substring: "graham", Categories: []models.ItemCategory{models.CategoryBiscuit}},
	{Substring: "croissant", Categories: []models.ItemCategory{models.CategoryBaseIngredient}},
	{Substring: "cream", Categories: []models.ItemCategory{models.CategoryBaseIngredient}},
	{Substring: "milk", Categories: []models.ItemCategory{models.CategoryBaseIngredient}},
	{Substring: "coffee", Categories: []models.ItemCategory{models.CategoryBaseIngredient}},
	{Substring: "espresso", Categories: []models.ItemCategory{models.CategoryBaseIngredient}},
	{Substring: "chopstick", Categories: []models.ItemCategory{models.CategoryPackaging}},
	{Substring: "cup", Categories: []models.ItemCategory{models.CategoryPackaging}},
	{Substring: "lid", Categories: []models.ItemCategory{models.CategoryPackaging}},
	{Substring: "bag", Categories: []models.ItemCategory{models.CategoryPackaging}},
	{Substring: "box", Categories: []models.ItemCategory{models.CategoryPackaging}},
	{Substring: "paper", Categories: []models.ItemCategory{models.CategoryPackaging}},
	{Substring: "tissue", Categories: []models.ItemCategory{models.CategoryPackaging}},
	{Substring: "wrapper", Categories: []models.ItemCategory{models.CategoryPackaging}},
}
