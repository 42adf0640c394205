// Package query compiles validated export requests into SQL against the
// vendor's per-state voter tables. The vendor schema is wide and its column
// naming is not perfectly uniform across jurisdictions; this package owns all
// knowledge of that schema, including the normalized-column fallback parsing
// used when a jurisdiction's district columns drift from the default naming.
//
// No SQL is executed here. Compilation is pure: the same request always
// produces byte-identical SQL, and compilation failures happen before any
// database connection is acquired.
package query

import "strings"

// The vendor's per-state tables are all named with this prefix followed by
// the two-letter state code, e.g. public."VoterCA".
const tablePrefix = "Voter"

// Vendor column names. These are quoted verbatim in generated SQL; the mixed
// underscore/camel style is the vendor's, not ours.
const (
	colVoterID          = "LALVOTERID"
	colFirstName        = "Voters_FirstName"
	colLastName         = "Voters_LastName"
	colAge              = "Voters_Age"
	colGender           = "Voters_Gender"
	colParty            = "Parties_Description"
	colPerformance      = "Voters_VotingPerformanceEvenYearGeneral"
	colCellPhone        = "VoterTelephones_CellPhoneFormatted"
	colLandline         = "VoterTelephones_LandlineFormatted"
	colHouseholdID      = "Residence_Families_HHID"
	colAddress          = "Residence_Addresses_AddressLine"
	colAddressExtra     = "Residence_Addresses_ExtraAddressLine"
	colCity             = "Residence_Addresses_City"
	colState            = "Residence_Addresses_State"
	colZip              = "Residence_Addresses_Zip"
	colLatitude         = "Residence_Addresses_Latitude"
	colLongitude        = "Residence_Addresses_Longitude"
	colMailAddress      = "Mailing_Addresses_AddressLine"
	colMailAddressExtra = "Mailing_Addresses_ExtraAddressLine"
	colMailCity         = "Mailing_Addresses_City"
	colMailState        = "Mailing_Addresses_State"
	colMailZip          = "Mailing_Addresses_Zip"
)

// quoteIdent double-quotes a SQL identifier, doubling any embedded double
// quotes. Vendor column names never contain quotes, but district keys arrive
// from the request body and are quoted through here too, so the identifier
// must stay contained no matter what the caller sends.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a SQL string literal, doubling any embedded
// single quotes. Used for values sliced out of vendor reference strings,
// which are the only non-constant literals this package injects.
func quoteLiteral(value string) string {
	out := make([]byte, 0, len(value)+2)
	out = append(out, '\'')
	for i := 0; i < len(value); i++ {
		if value[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, value[i])
	}
	return string(append(out, '\''))
}
