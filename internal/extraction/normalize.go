package extraction

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// wireDraft mirrors the JSON schema the model is prompted to return.
type wireDraft struct {
	Carrier         *string       `json:"carrier"`
	PolicyNumber    *string       `json:"policy_number"`
	PolicyType      *string       `json:"policy_type"`
	Scope           *string       `json:"scope"`
	CoverageAmount  flexibleInt   `json:"coverage_amount"`
	Deductible      flexibleInt   `json:"deductible"`
	PremiumAmount   flexibleInt   `json:"premium_amount"`
	RenewalDate     *string       `json:"renewal_date"`
	EffectiveDate   *string       `json:"effective_date"`
	NamedInsured    *string       `json:"named_insured"`
	PaymentSchedule *string       `json:"payment_schedule"`
	Contacts        []wireContact `json:"contacts"`
	Inclusions      []wireItem    `json:"inclusions"`
	Exclusions      []wireItem    `json:"exclusions"`
	Details         []wireDetail  `json:"details"`
}

type wireContact struct {
	Role    string `json:"role"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type wireItem struct {
	Description string `json:"description"`
	Limit       string `json:"limit"`
}

type wireDetail struct {
	FieldName  string `json:"field_name"`
	FieldValue string `json:"field_value"`
}

// flexibleInt tolerates the model returning an amount as a number, a numeric
// string, or null. Unparseable values degrade to absent rather than failing
// the whole draft.
type flexibleInt struct {
	value *int64
}

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil
	}
	v := int64(parsed)
	f.value = &v
	return nil
}

// ParseDraft turns a raw model response into a normalized Draft. Markdown
// fences are stripped, inclusions/exclusions are merged into coverage items,
// promoted top-level fields become details, duplicated per-vehicle detail
// fields are grouped into numbered vehicles, and driver entries are
// consolidated into one listed_drivers detail.
func ParseDraft(raw []byte) (Draft, error) {
	cleaned := stripFences(string(raw))

	var wire wireDraft
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return Draft{}, fmt.Errorf("draft parse: %w", err)
	}

	draft := Draft{
		Carrier:        wire.Carrier,
		PolicyNumber:   wire.PolicyNumber,
		PolicyType:     wire.PolicyType,
		Scope:          wire.Scope,
		CoverageAmount: wire.CoverageAmount.value,
		Deductible:     wire.Deductible.value,
		PremiumAmount:  wire.PremiumAmount.value,
		RenewalDate:    wire.RenewalDate,
		Contacts:       []DraftContact{},
		CoverageItems:  []DraftCoverageItem{},
		Details:        []DraftDetail{},
	}

	for _, c := range wire.Contacts {
		role := c.Role
		if role == "" {
			role = "other"
		}
		draft.Contacts = append(draft.Contacts, DraftContact{
			Role:    role,
			Name:    c.Name,
			Company: c.Company,
			Phone:   c.Phone,
			Email:   c.Email,
		})
	}

	for _, inc := range wire.Inclusions {
		draft.CoverageItems = append(draft.CoverageItems, DraftCoverageItem{
			ItemType:    "inclusion",
			Description: inc.Description,
			Limit:       inc.Limit,
		})
	}
	for _, exc := range wire.Exclusions {
		draft.CoverageItems = append(draft.CoverageItems, DraftCoverageItem{
			ItemType:    "exclusion",
			Description: exc.Description,
		})
	}

	for _, promoted := range []struct {
		name  string
		value *string
	}{
		{"effective_date", wire.EffectiveDate},
		{"named_insured", wire.NamedInsured},
		{"payment_schedule", wire.PaymentSchedule},
	} {
		if promoted.value != nil && *promoted.value != "" {
			draft.Details = append(draft.Details, DraftDetail{FieldName: promoted.name, FieldValue: *promoted.value})
		}
	}

	draft.Details = append(draft.Details, normalizeDetails(wire.Details)...)

	return draft, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		raw = raw[idx+1:]
	} else {
		raw = raw[3:]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

var vehicleFields = map[string]struct{}{
	"year":                     {},
	"make":                     {},
	"model":                    {},
	"VIN":                      {},
	"vehicle_description":      {},
	"mileage":                  {},
	"usage_type":               {},
	"collision_deductible":     {},
	"comprehensive_deductible": {},
	"garaging_address":         {},
}

// normalizeDetails groups repeated per-vehicle fields into numbered vehicles
// and consolidates driver entries; everything else passes through in order.
func normalizeDetails(raw []wireDetail) []DraftDetail {
	var vehicles []map[string]string
	current := map[string]string{}
	var drivers []string
	var others []wireDetail

	for _, d := range raw {
		if d.FieldName == "" || d.FieldValue == "" {
			continue
		}
		switch {
		case alreadyNumberedVehicleField(d.FieldName):
			others = append(others, d)
		case d.FieldName == "listed_drivers":
			for _, part := range strings.Split(d.FieldValue, ",") {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					drivers = append(drivers, trimmed)
				}
			}
		case d.FieldName == "driver_name":
			drivers = append(drivers, d.FieldValue)
		default:
			if _, isVehicle := vehicleFields[d.FieldName]; isVehicle {
				// A repeated field starts the next vehicle.
				if _, seen := current[d.FieldName]; seen {
					vehicles = append(vehicles, current)
					current = map[string]string{}
				}
				current[d.FieldName] = d.FieldValue
			} else {
				others = append(others, d)
			}
		}
	}
	if len(current) > 0 {
		vehicles = append(vehicles, current)
	}

	var out []DraftDetail
	for i, vehicle := range vehicles {
		desc := vehicle["vehicle_description"]
		if desc == "" {
			desc = joinNonEmpty(vehicle["year"], vehicle["make"], vehicle["model"])
		}
		if desc != "" {
			out = append(out, DraftDetail{FieldName: fmt.Sprintf("vehicle_%d_description", i+1), FieldValue: desc})
		}
		if vin := vehicle["VIN"]; vin != "" {
			out = append(out, DraftDetail{FieldName: fmt.Sprintf("vehicle_%d_VIN", i+1), FieldValue: vin})
		}
	}

	if len(drivers) > 0 {
		out = append(out, DraftDetail{FieldName: "listed_drivers", FieldValue: strings.Join(drivers, ", ")})
	}

	for _, d := range others {
		out = append(out, DraftDetail{FieldName: d.FieldName, FieldValue: d.FieldValue})
	}
	return out
}

func alreadyNumberedVehicleField(name string) bool {
	const prefix = "vehicle_"
	return strings.HasPrefix(name, prefix) && strings.Contains(name[len(prefix):], "_")
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}
