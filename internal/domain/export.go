// Package domain contains the core data types for the voter file export
// service. This package has zero external dependencies and is imported by
// every other internal package (query, repo, service, handler).
package domain

// Purpose is the outreach channel an export is intended for. It determines
// the default column projection and any implicit reachability predicates
// (e.g. texting exports only include rows with a cellphone on file).
type Purpose string

// The closed set of export purposes. Anything else is a caller error and is
// rejected before a query is compiled.
const (
	PurposeFull          Purpose = "full"
	PurposeDoorKnocking  Purpose = "doorKnocking"
	PurposeTexting       Purpose = "texting"
	PurposeDigitalAds    Purpose = "digitalAds"
	PurposeDirectMail    Purpose = "directMail"
	PurposeTelemarketing Purpose = "telemarketing"
	PurposeCustom        Purpose = "custom"
)

// Valid reports whether p is one of the known purposes.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeFull, PurposeDoorKnocking, PurposeTexting, PurposeDigitalAds,
		PurposeDirectMail, PurposeTelemarketing, PurposeCustom:
		return true
	}
	return false
}

// GeographicScope narrows an export to a state and, optionally, one sub-state
// legislative district. DistrictValue is the vendor's raw hierarchical
// reference string (e.g. "CA##LOS ANGELES##CD 34##"); it is parsed
// positionally by the query compiler, never stored structurally.
type GeographicScope struct {
	State         string `json:"state" validate:"required,len=2,alpha"`
	DistrictKey   string `json:"districtKey,omitempty"`
	DistrictValue string `json:"districtValue,omitempty"`
}

// ColumnPair maps one vendor source column to the label it carries in the
// exported CSV header.
type ColumnPair struct {
	Source string `json:"source"`
	Label  string `json:"label"`
}

// ColumnMapping is an ordered list of source-column/export-label pairs. The
// same mapping that selected the projection must be used to rewrite the CSV
// header, in the same order, or the header and the data columns drift apart.
type ColumnMapping []ColumnPair

// Sources returns the source column names in mapping order.
func (m ColumnMapping) Sources() []string {
	out := make([]string, len(m))
	for i, p := range m {
		out[i] = p.Source
	}
	return out
}

// ExportRequest is the fully-validated input to the export pipeline. It is
// constructed once by the caller and never mutated.
type ExportRequest struct {
	Purpose Purpose `json:"purpose" validate:"required"`

	// AudienceTokens are discrete filter atoms from the closed audience
	// vocabulary (engagement tier, party, age band, gender). Unrecognized
	// tokens are ignored by the compiler, not rejected.
	AudienceTokens []string `json:"audienceTokens,omitempty"`

	// ExplicitColumns, when non-empty, fully replaces the purpose's default
	// projection (no merge).
	ExplicitColumns ColumnMapping `json:"explicitColumns,omitempty"`

	Scope GeographicScope `json:"scope" validate:"required"`

	ElectionYear int `json:"electionYear" validate:"required,min=1900"`

	// RowLimit caps the number of exported rows. Zero means no limit.
	RowLimit int `json:"rowLimit,omitempty" validate:"omitempty,min=1"`

	// CountOnly requests the matching row count instead of a CSV stream.
	CountOnly bool `json:"countOnly,omitempty"`

	// FileName is the suggested attachment name for CSV responses. Optional;
	// the handler derives one from state and purpose when empty.
	FileName string `json:"fileName,omitempty"`
}

// EvenElectionYear reports the parity of the target election's year, which
// decides which historical-performance column series the vendor provides.
func (r ExportRequest) EvenElectionYear() bool {
	return r.ElectionYear%2 == 0
}

// QueryMode records which execution mode produced a CompiledQuery.
type QueryMode string

const (
	// ModeCount is the cheap COUNT(*) probe run before every export.
	ModeCount QueryMode = "count"
	// ModeFallbackCount is the COUNT(*) re-run under normalized-column
	// parsing after a zero primary count.
	ModeFallbackCount QueryMode = "fallbackCount"
	// ModeFull is the full row-export SELECT.
	ModeFull QueryMode = "full"
)

// CompiledQuery is a finished SQL SELECT statement plus the mode that
// produced it. It is a value object with no identity beyond its text: two
// requests with identical normalized inputs compile to byte-identical SQL.
type CompiledQuery struct {
	SQL  string
	Mode QueryMode
}
