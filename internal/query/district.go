package query

import "strings"

// estimateSuffix marks district values the vendor derived by estimation
// rather than from official boundary data. Both spellings ("CD 34" and
// "CD 34 (EST.)") appear in the data for the same district, inconsistently
// across jurisdictions, so predicates always match both.
const estimateSuffix = " (EST.)"

// DistrictRef is the parsed form of a vendor district reference string.
//
// The raw form is an informally-structured hierarchical value,
// "STATE##COUNTY##DISTRICT_LABEL", optionally with a trailing "##" and
// optionally suffixed with " (EST.)". It is parsed positionally; there is no
// schema behind it.
type DistrictRef struct {
	State  string
	County string
	Label  string

	// Estimate records whether the label carried the vendor's " (EST.)"
	// suffix before it was stripped.
	Estimate bool
}

// ParseDistrictRef slices a raw vendor reference string into its positional
// segments. A single-segment input yields State == Label with an empty
// County. The " (EST.)" suffix is stripped from the label and recorded in
// Estimate.
func ParseDistrictRef(raw string) DistrictRef {
	raw = strings.TrimSuffix(raw, "##")
	parts := strings.Split(raw, "##")

	ref := DistrictRef{State: parts[0], Label: parts[len(parts)-1]}
	if len(parts) > 1 {
		ref.County = parts[1]
	}
	if strings.HasSuffix(ref.Label, estimateSuffix) {
		ref.Label = strings.TrimSuffix(ref.Label, estimateSuffix)
		ref.Estimate = true
	}
	ref.County = strings.TrimSuffix(ref.County, estimateSuffix)
	return ref
}

// Value returns the segment a district predicate should match: the final
// segment (the district label) normally, or the second segment in
// normalized-column mode, where jurisdictions that drifted from the default
// naming store the matchable value one position earlier.
func (d DistrictRef) Value(normalized bool) string {
	if normalized && d.County != "" {
		return d.County
	}
	return d.Label
}

// normalizeDistrictKey collapses the vendor's per-jurisdiction district
// column variants onto their normalized names. Only applied in
// normalized-column mode; all other keys pass through unchanged.
func normalizeDistrictKey(key string) string {
	switch {
	case strings.HasPrefix(key, "City_"):
		return "City"
	case strings.HasPrefix(key, "County_"):
		return "County"
	}
	return key
}

// districtPredicate builds the WHERE fragment scoping a query to one
// sub-state district, matching both the bare and " (EST.)"-suffixed
// spellings the vendor stores. Returns "" when the request has no district
// (state-only scope), in which case only the per-state table narrows the
// query.
func districtPredicate(key, rawValue string, normalized bool) string {
	if key == "" || rawValue == "" {
		return ""
	}

	if normalized {
		key = normalizeDistrictKey(key)
	}
	value := ParseDistrictRef(rawValue).Value(normalized)

	col := quoteIdent(key)
	return "(" + col + " = " + quoteLiteral(value) +
		" OR " + col + " = " + quoteLiteral(value+estimateSuffix) + ")"
}
