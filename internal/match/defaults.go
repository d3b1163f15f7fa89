package match

// DefaultAliases maps recipe-side ingredient names to the canonical
// inventory item names stores actually stock. Hand-maintained; loaded from
// configuration when a site needs to extend it.
var DefaultAliases = AliasTable{
	"Marshmallow Toppings":  "Marshmallow",
	"Choco Flakes Toppings": "Choco Flakes",
	"Peanut Toppings":       "Peanut",
	"Colored Sprinkle":      "Colored Sprinkles",
	"Chocolate Sauce":       "Chocolate Sauce for Coffee",
	"Caramel Sauce":         "Caramel Sauce for Coffee",
	"Chocolate Crumbs":      "Chocolate Crumble",
	"Whip Cream":            "Whipped Cream",
	"Heavy Cream":           "Whipped Cream",
	"Hazelnut Spread":       "Nutella",
	"Cookie Butter":         "Biscoff Spread",
	"Chopstick":             "Chopsticks",
	"Wax Paper":             "Waxed Paper",
}
