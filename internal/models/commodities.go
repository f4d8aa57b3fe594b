// ABOUTME: Default commodity catalog
// ABOUTME: Seeded into an empty item catalog on first run

package models

// DefaultCommodities lists the construction commodities known out of the box.
var DefaultCommodities = []string{
	"Advance Catalysers", "Agri-Medicines", "Aluminium", "Animal Meat", "Basic Medicines",
	"Battle Weapons", "Beer", "Bioreducing Lichen", "Biowaste", "Ceramic Composites",
	"CMM Composites", "Coffee", "Combat Stabilisers", "Computer Components", "Copper",
	"Crop Harvesters", "Emergency Power Cells", "Evacuation Shelter", "Fish", "Food Cartridges",
	"Fruit & Veg", "Geological Equipment", "Grain", "H.E. Suits", "Insulating Membranes",
	"Land Enrichment Systems", "Liquid Oxygen", "Liquor", "Medical Diag. Equip.",
	"Micro Controllers", "Military Grade Fabrics", "Muon Imager", "Non-Lethal Weapon",
	"Pesticides", "Polymers", "Power Generators", "Reactive Armour", "Resonating Separators",
	"Robotics", "Semiconductors", "Steel", "Structural Regulators", "Surface Stabilisers",
	"Survival Equipment", "Superconductors", "Tea", "Titanium", "Water", "Water Purifiers", "Wine",
}
