package ledger

// Catalog holds the suggested values offered by the entry forms. Type stays free-form; these
// lists are not enforced.
type Catalog struct {
	Currencies   []string   `json:"currencies"`
	SavingTypes  []string   `json:"saving_types"`
	ExpenseTypes []string   `json:"expense_types"`
	Categories   []Category `json:"categories"`
}

// DefaultCatalog returns the suggestions of the entry forms.
func DefaultCatalog() Catalog {
	return Catalog{
		Currencies:   []string{"USD", "ARS", "BTC", "ETH", "EUR", "MXN", "CLP", "COP", "PEN"},
		SavingTypes:  []string{"general", "emergency", "vacation", "house", "car", "education", "retirement", "investment", "other"},
		ExpenseTypes: []string{"general", "food", "transport", "housing", "utilities", "entertainment", "health", "education", "shopping", "other"},
		Categories:   Categories,
	}
}
