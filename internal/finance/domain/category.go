package domain

import "sort"

type PredefinedCategory struct {
	Name string `json:"name"`
	Type string `json:"type"` // "income" or "expense"
}

var predefinedCategories = []PredefinedCategory{
	{Name: "Salary", Type: TypeIncome},
	{Name: "Freelance", Type: TypeIncome},
	{Name: "Investments", Type: TypeIncome},
	{Name: "Gifts", Type: TypeIncome},
	{Name: "Other Income", Type: TypeIncome},
	{Name: "Housing", Type: TypeExpense},
	{Name: "Groceries", Type: TypeExpense},
	{Name: "Transport", Type: TypeExpense},
	{Name: "Utilities", Type: TypeExpense},
	{Name: "Healthcare", Type: TypeExpense},
	{Name: "Entertainment", Type: TypeExpense},
	{Name: "Education", Type: TypeExpense},
	{Name: "Dining", Type: TypeExpense},
	{Name: "Shopping", Type: TypeExpense},
	{Name: "Other", Type: TypeExpense},
}

// PredefinedCategories returns the built-in categories, optionally filtered by type.
func PredefinedCategories(categoryType string) []PredefinedCategory {
	out := make([]PredefinedCategory, 0, len(predefinedCategories))
	for _, c := range predefinedCategories {
		if categoryType == "" || c.Type == categoryType {
			out = append(out, c)
		}
	}
	return out
}

// MergeCategories returns the predefined category names plus any custom
// names already used in a workspace, sorted and without duplicates.
func MergeCategories(used []string) []string {
	seen := make(map[string]bool, len(predefinedCategories)+len(used))
	var out []string
	for _, c := range predefinedCategories {
		if !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c.Name)
		}
	}
	for _, name := range used {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
