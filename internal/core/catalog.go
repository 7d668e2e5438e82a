package core

// ExpenseType identifies one budget category. The set is closed; see Types.
type ExpenseType string

const (
	Rent          ExpenseType = "rent"
	Utilities     ExpenseType = "utilities"
	Groceries     ExpenseType = "groceries"
	Transport     ExpenseType = "transport"
	Internet      ExpenseType = "internet"
	Phone         ExpenseType = "phone"
	Insurance     ExpenseType = "insurance"
	Subscriptions ExpenseType = "subscriptions"
	Health        ExpenseType = "health"
	// MiscExtra is the catch-all category; only its entries carry a subtype.
	MiscExtra ExpenseType = "misc extra"
)

var types = []ExpenseType{
	Rent,
	Utilities,
	Groceries,
	Transport,
	Internet,
	Phone,
	Insurance,
	Subscriptions,
	Health,
	MiscExtra,
}

var displayNames = map[ExpenseType]string{
	Rent:          "Rent",
	Utilities:     "Utilities",
	Groceries:     "Groceries",
	Transport:     "Transport",
	Internet:      "Internet",
	Phone:         "Phone",
	Insurance:     "Insurance",
	Subscriptions: "Subscriptions",
	Health:        "Health",
	MiscExtra:     "Misc Extra",
}

// Expected monthly amounts used for deviation warnings.
var defaultBudgets = map[ExpenseType]float64{
	Rent:          1200,
	Utilities:     150,
	Groceries:     400,
	Transport:     80,
	Internet:      30,
	Phone:         20,
	Insurance:     60,
	Subscriptions: 25,
	Health:        50,
	MiscExtra:     100,
}

// Types returns the catalog in display order.
func Types() []ExpenseType {
	return append([]ExpenseType(nil), types...)
}

// Known reports whether t belongs to the catalog.
func (t ExpenseType) Known() bool {
	_, ok := displayNames[t]
	return ok
}

// DisplayName returns the human label for t, falling back to the raw identifier.
func DisplayName(t ExpenseType) string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// DefaultBudget returns the expected monthly amount for t.
func DefaultBudget(t ExpenseType) (float64, bool) {
	v, ok := defaultBudgets[t]
	return v, ok
}

// DefaultBudgets returns a copy of the whole default budget table.
func DefaultBudgets() map[ExpenseType]float64 {
	out := make(map[ExpenseType]float64, len(defaultBudgets))
	for k, v := range defaultBudgets {
		out[k] = v
	}
	return out
}
