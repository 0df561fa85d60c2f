package catalog

import entities "github.com/merchstack/merchstack-go/internal/domain/entities/catalog"

// DemoCatalog is seeded into an empty products table so a fresh install has
// a working storefront to recommend against.
var DemoCatalog = []*entities.Product{
	{ID: "m-001", Name: "Oxford Button-Down Shirt", Description: "Classic cotton oxford with a tailored fit", Category: "men", Price: 68, Rating: 4.5, Reviews: 212},
	{ID: "m-002", Name: "Selvedge Denim Jeans", Description: "Raw selvedge denim, straight cut", Category: "men", Price: 145, Rating: 4.7, Reviews: 340},
	{ID: "m-003", Name: "Merino Crewneck Sweater", Description: "Lightweight merino wool crewneck", Category: "men", Price: 98, Rating: 4.4, Reviews: 126},
	{ID: "m-004", Name: "Twill Chino Trousers", Description: "Garment-dyed stretch twill chinos", Category: "men", Price: 72, Rating: 4.2, Reviews: 98},
	{ID: "w-001", Name: "Silk Wrap Blouse", Description: "Washable silk blouse with wrap front", Category: "women", Price: 118, Rating: 4.6, Reviews: 287},
	{ID: "w-002", Name: "High-Rise Wide-Leg Pants", Description: "Drapey wide-leg pants in crepe", Category: "women", Price: 89, Rating: 4.3, Reviews: 154},
	{ID: "w-003", Name: "Ribbed Knit Midi Dress", Description: "Stretch ribbed knit, midi length", Category: "women", Price: 104, Rating: 4.8, Reviews: 412},
	{ID: "w-004", Name: "Cropped Denim Jacket", Description: "Washed denim jacket, cropped cut", Category: "women", Price: 96, Rating: 4.1, Reviews: 76},
	{ID: "a-001", Name: "Leather Belt", Description: "Full-grain leather belt, brass buckle", Category: "accessories", Price: 45, Rating: 4.5, Reviews: 198},
	{ID: "a-002", Name: "Wool Scarf", Description: "Brushed lambswool scarf", Category: "accessories", Price: 38, Rating: 4.4, Reviews: 87},
	{ID: "a-003", Name: "Canvas Tote Bag", Description: "Heavy canvas tote with leather handles", Category: "accessories", Price: 58, Rating: 4.6, Reviews: 243},
	{ID: "a-004", Name: "Sterling Pendant Necklace", Description: "Minimal sterling silver pendant", Category: "accessories", Price: 84, Rating: 4.7, Reviews: 165},
}
