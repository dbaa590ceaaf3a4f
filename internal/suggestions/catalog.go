// Package suggestions holds the static catalog of likely detail field names
// per policy type, used to propose the next field to capture.
package suggestions

var catalog = map[string][]string{
	"auto":         {"vehicle_1_description", "vehicle_1_VIN", "vehicle_2_description", "vehicle_2_VIN", "listed_drivers", "garaging_address", "usage_type", "liability_limit"},
	"home":         {"year_built", "square_footage", "construction_type", "roof_type", "roof_age", "stories", "alarm_system", "sprinkler_system", "swimming_pool", "replacement_cost"},
	"life":         {"insured_name", "beneficiary", "face_value", "term_length", "cash_value"},
	"liability":    {"underlying_policies", "aggregate_limit", "per_occurrence_limit"},
	"umbrella":     {"underlying_policies", "aggregate_limit", "per_occurrence_limit"},
	"workers_comp": {"business_name", "classification_code", "payroll_amount", "experience_modifier", "state"},
}

// SuggestedFields returns the ordered suggestion list for a policy type.
// Unknown types get an empty list.
func SuggestedFields(policyType string) []string {
	fields, ok := catalog[policyType]
	if !ok {
		return []string{}
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Available filters the suggestions for a policy type against the detail field
// names already present, preserving catalog order.
func Available(policyType string, existing []string) []string {
	used := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		used[name] = struct{}{}
	}
	out := []string{}
	for _, field := range SuggestedFields(policyType) {
		if _, ok := used[field]; !ok {
			out = append(out, field)
		}
	}
	return out
}
