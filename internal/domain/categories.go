package domain

import "sort"

// ============================================================
// Category taxonomy
// ============================================================

// subcategoriesByCategory is the closed category→subcategory lookup table.
// A subcategory is only meaningful relative to its category; changing the
// category of a line item always clears its subcategory.
var subcategoriesByCategory = map[string][]string{
	"Alimentação": {"Mercado", "Padaria", "Restaurante", "Delivery", "Bebidas"},
	"Transporte":  {"Combustível", "Estacionamento", "Pedágio", "Manutenção", "App de transporte"},
	"Saúde":       {"Farmácia", "Consulta", "Exames", "Plano de saúde"},
	"Moradia":     {"Aluguel", "Condomínio", "Energia", "Água", "Internet", "Gás"},
	"Educação":    {"Mensalidade", "Material escolar", "Cursos", "Livros"},
	"Lazer":       {"Streaming", "Cinema", "Viagem", "Eventos"},
	"Vestuário":   {"Roupas", "Calçados", "Acessórios"},
	"Pets":        {"Ração", "Veterinário", "Petshop"},
	"Outros":      {"Diversos"},
}

// Categories returns the closed set of category names in stable order.
func Categories() []string {
	names := make([]string, 0, len(subcategoriesByCategory))
	for name := range subcategoriesByCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subcategories returns the subcategories valid for a category,
// or nil for an unknown category.
func Subcategories(category string) []string {
	return subcategoriesByCategory[category]
}

// ValidCategory reports whether the category belongs to the closed table.
func ValidCategory(category string) bool {
	_, ok := subcategoriesByCategory[category]
	return ok
}

// ValidSubcategory reports whether sub is valid relative to category.
// An empty subcategory is always valid (items need not be subcategorized).
func ValidSubcategory(category, sub string) bool {
	if sub == "" {
		return true
	}
	for _, s := range subcategoriesByCategory[category] {
		if s == sub {
			return true
		}
	}
	return false
}
