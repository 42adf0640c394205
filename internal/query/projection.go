package query

import (
	"fmt"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
)

// projection is the resolved column selection for one export, together with
// the reachability predicates the purpose implies. Selecting a channel means
// the row must be reachable on that channel, so a purpose's columns and its
// predicates travel together as one declarative rule.
type projection struct {
	mapping domain.ColumnMapping

	// predicates are purpose-implied WHERE fragments (e.g. landline
	// non-null for telemarketing). They apply even when the caller
	// overrides the column list.
	predicates []string

	// dedupeHouseholds requests the direct-mail one-row-per-household
	// existence check, built by the assembler because it needs the table
	// name.
	dedupeHouseholds bool
}

// Shared column groups. Order matters: it is the order columns appear in the
// projection, the CSV header, and the header remap.
var (
	identityColumns = domain.ColumnMapping{
		{Source: colVoterID, Label: "Voter ID"},
		{Source: colFirstName, Label: "First Name"},
		{Source: colLastName, Label: "Last Name"},
	}
	residenceColumns = domain.ColumnMapping{
		{Source: colAddress, Label: "Address"},
		{Source: colAddressExtra, Label: "Address Line 2"},
		{Source: colCity, Label: "City"},
		{Source: colState, Label: "State"},
		{Source: colZip, Label: "Zip"},
	}
	demographicColumns = domain.ColumnMapping{
		{Source: colAge, Label: "Age"},
		{Source: colGender, Label: "Gender"},
		{Source: colParty, Label: "Party"},
	}
	mailingColumns = domain.ColumnMapping{
		{Source: colMailAddress, Label: "Mailing Address"},
		{Source: colMailAddressExtra, Label: "Mailing Address Line 2"},
		{Source: colMailCity, Label: "Mailing City"},
		{Source: colMailState, Label: "Mailing State"},
		{Source: colMailZip, Label: "Mailing Zip"},
	}

	cellPhonePair = domain.ColumnPair{Source: colCellPhone, Label: "Cell Phone"}
	landlinePair  = domain.ColumnPair{Source: colLandline, Label: "Landline"}

	cellPhoneNonNull = `"` + colCellPhone + `" IS NOT NULL`
	landlineNonNull  = `"` + colLandline + `" IS NOT NULL`
)

// purposeRule declares the hand-curated default column set and implicit
// predicates for one export purpose.
type purposeRule struct {
	columns          domain.ColumnMapping
	predicates       []string
	dedupeHouseholds bool
}

// purposeRules is the per-purpose projection table. The texting rule carries
// no cellphone entries here because resolveProjection appends them
// unconditionally as its final step, whichever branch produced the base set.
var purposeRules = map[domain.Purpose]purposeRule{
	domain.PurposeFull: {
		columns: concat(identityColumns, residenceColumns, demographicColumns,
			domain.ColumnMapping{cellPhonePair, landlinePair}),
	},
	domain.PurposeDoorKnocking: {
		columns: concat(identityColumns, residenceColumns, domain.ColumnMapping{
			{Source: colLatitude, Label: "Latitude"},
			{Source: colLongitude, Label: "Longitude"},
		}),
	},
	domain.PurposeTexting: {
		columns: concat(identityColumns),
	},
	domain.PurposeDigitalAds: {
		columns:    concat(identityColumns, domain.ColumnMapping{cellPhonePair}),
		predicates: []string{cellPhoneNonNull},
	},
	domain.PurposeDirectMail: {
		columns:          concat(identityColumns, mailingColumns),
		dedupeHouseholds: true,
	},
	domain.PurposeTelemarketing: {
		columns:    concat(identityColumns, domain.ColumnMapping{landlinePair}),
		predicates: []string{landlineNonNull},
	},
	domain.PurposeCustom: {
		columns: concat(identityColumns, residenceColumns, demographicColumns),
	},
}

// resolveProjection picks the column mapping and implied predicates for a
// request. Explicit caller-supplied columns fully replace the purpose
// default (no merge); the purpose's predicates still apply. Texting always
// gets a cellphone column and a cellphone-non-null predicate appended last,
// regardless of which branch produced the base set.
func resolveProjection(req domain.ExportRequest) (projection, error) {
	rule, ok := purposeRules[req.Purpose]
	if !ok {
		return projection{}, fmt.Errorf("unknown purpose %q: %w", req.Purpose, domain.ErrCompile)
	}

	p := projection{
		predicates:       append([]string(nil), rule.predicates...),
		dedupeHouseholds: rule.dedupeHouseholds,
	}
	if len(req.ExplicitColumns) > 0 {
		p.mapping = append(domain.ColumnMapping(nil), req.ExplicitColumns...)
	} else {
		p.mapping = append(domain.ColumnMapping(nil), rule.columns...)
	}

	if req.Purpose == domain.PurposeTexting {
		p.mapping = append(p.mapping, cellPhonePair)
		p.predicates = append(p.predicates, cellPhoneNonNull)
	}

	return p, nil
}

// concat joins column groups into one freshly-allocated mapping, so the
// shared group slices are never aliased by per-request mutation.
func concat(groups ...domain.ColumnMapping) domain.ColumnMapping {
	var out domain.ColumnMapping
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
