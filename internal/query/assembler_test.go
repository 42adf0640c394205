package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
	"github.com/thegoodparty/gp-api-sub001/internal/query"
)

func testCompiler() *query.Compiler {
	return query.NewCompiler(query.Window{EvenYear: 2024, OddYear: 2023, Depth: 2})
}

func textingRequest() domain.ExportRequest {
	return domain.ExportRequest{
		Purpose:        domain.PurposeTexting,
		AudienceTokens: []string{query.TokenDemocrat, query.TokenAge50Plus},
		Scope:          domain.GeographicScope{State: "CA"},
		ElectionYear:   2024,
	}
}

// ---- full export compilation ----------------------------------------------

func TestCompileExport_TextingEndToEnd(t *testing.T) {
	q, mapping, err := testCompiler().CompileExport(textingRequest(), false)

	require.NoError(t, err)
	assert.Equal(t, domain.ModeFull, q.Mode)
	assert.Equal(t,
		`SELECT "LALVOTERID", "Voters_FirstName", "Voters_LastName", "VoterTelephones_CellPhoneFormatted"`+
			` FROM public."VoterCA"`+
			` WHERE "VoterTelephones_CellPhoneFormatted" IS NOT NULL`+
			` AND ("Parties_Description" = 'Democratic')`+
			` AND ("Voters_Age"::integer > 50)`,
		q.SQL)
	assert.Equal(t, "Cell Phone", mapping[len(mapping)-1].Label)
}

func TestCompileExport_Deterministic(t *testing.T) {
	a := textingRequest()
	b := textingRequest()
	b.AudienceTokens = []string{query.TokenAge50Plus, query.TokenDemocrat} // reordered

	qa, _, err := testCompiler().CompileExport(a, false)
	require.NoError(t, err)
	qb, _, err := testCompiler().CompileExport(b, false)
	require.NoError(t, err)

	assert.Equal(t, qa.SQL, qb.SQL)
}

func TestCompileExport_MappingAlignsWithProjection(t *testing.T) {
	purposes := []domain.Purpose{
		domain.PurposeFull, domain.PurposeDoorKnocking, domain.PurposeTexting,
		domain.PurposeDigitalAds, domain.PurposeDirectMail,
		domain.PurposeTelemarketing, domain.PurposeCustom,
	}
	for _, purpose := range purposes {
		req := textingRequest()
		req.Purpose = purpose
		req.AudienceTokens = nil

		q, mapping, err := testCompiler().CompileExport(req, false)
		require.NoError(t, err, "purpose %s", purpose)

		// Every projected column appears in the mapping, in order.
		pos := 0
		for _, pair := range mapping {
			idx := indexFrom(q.SQL, `"`+pair.Source+`"`, pos)
			require.GreaterOrEqual(t, idx, 0, "purpose %s: column %s missing or out of order", purpose, pair.Source)
			pos = idx + 1
		}
	}
}

func TestCompileExport_ExplicitColumnsOverrideDefaults(t *testing.T) {
	req := textingRequest()
	req.Purpose = domain.PurposeCustom
	req.AudienceTokens = nil
	req.ExplicitColumns = domain.ColumnMapping{
		{Source: "Voters_FirstName", Label: "fname"},
		{Source: "Voters_Age", Label: "age"},
	}

	q, mapping, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.Equal(t, `SELECT "Voters_FirstName", "Voters_Age" FROM public."VoterCA"`, q.SQL)
	assert.Equal(t, req.ExplicitColumns, mapping)
}

func TestCompileExport_TextingAppendsCellphoneEvenWithExplicitColumns(t *testing.T) {
	req := textingRequest()
	req.ExplicitColumns = domain.ColumnMapping{{Source: "Voters_FirstName", Label: "fname"}}

	q, mapping, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.Contains(t, q.SQL, `"VoterTelephones_CellPhoneFormatted"`)
	assert.Contains(t, q.SQL, `"VoterTelephones_CellPhoneFormatted" IS NOT NULL`)
	assert.Equal(t, "VoterTelephones_CellPhoneFormatted", mapping[len(mapping)-1].Source)
}

func TestCompileExport_FullPurposeIncludesYearColumns(t *testing.T) {
	req := textingRequest()
	req.Purpose = domain.PurposeFull

	q, mapping, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	for _, col := range []string{"General_2024", "General_2022", "Primary_2024", "Primary_2022"} {
		assert.Contains(t, q.SQL, `"`+col+`"`)
	}
	// Year columns export under their own names.
	assert.Equal(t, domain.ColumnPair{Source: "Primary_2022", Label: "Primary_2022"}, mapping[len(mapping)-1])
}

func TestCompileExport_OddElectionYearUsesAnyElectionColumns(t *testing.T) {
	req := textingRequest()
	req.Purpose = domain.PurposeFull
	req.ElectionYear = 2025

	q, _, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.Contains(t, q.SQL, `"AnyElection_2023"`)
	assert.Contains(t, q.SQL, `"AnyElection_2021"`)
	assert.NotContains(t, q.SQL, "General_")
	assert.NotContains(t, q.SQL, "Primary_")
}

func TestCompileExport_NonFullPurposeHasNoYearColumns(t *testing.T) {
	req := textingRequest()
	req.Purpose = domain.PurposeDoorKnocking
	req.AudienceTokens = nil

	q, _, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "General_")
	assert.NotContains(t, q.SQL, "AnyElection_")
}

func TestCompileExport_DirectMailDeduplicatesHouseholds(t *testing.T) {
	req := textingRequest()
	req.Purpose = domain.PurposeDirectMail
	req.AudienceTokens = nil

	q, _, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.Contains(t, q.SQL,
		`EXISTS (SELECT 1 FROM public."VoterCA" AS household`+
			` WHERE household."Residence_Families_HHID" = "VoterCA"."Residence_Families_HHID"`+
			` GROUP BY household."Residence_Families_HHID"`+
			` HAVING COUNT(*) = 1)`)
}

// ---- WHERE / LIMIT shape ---------------------------------------------------

func TestCompileExport_NoPredicatesMeansNoWhereClause(t *testing.T) {
	req := domain.ExportRequest{
		Purpose:      domain.PurposeDoorKnocking,
		Scope:        domain.GeographicScope{State: "CA"},
		ElectionYear: 2024,
	}

	q, _, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "WHERE")
}

func TestCompileExport_RowLimitAppendedAfterWhere(t *testing.T) {
	req := textingRequest()
	req.RowLimit = 500

	q, _, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.Contains(t, q.SQL, " LIMIT 500")
}

func TestCompileExport_RowLimitIgnoredWithoutWhere(t *testing.T) {
	// Inherited behavior: the limit only rides on a WHERE clause.
	req := domain.ExportRequest{
		Purpose:      domain.PurposeDoorKnocking,
		Scope:        domain.GeographicScope{State: "CA"},
		ElectionYear: 2024,
		RowLimit:     500,
	}

	q, _, err := testCompiler().CompileExport(req, false)

	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "LIMIT")
}

// ---- count mode ------------------------------------------------------------

func TestCompileCount_ReplacesProjectionAndDropsYearColumns(t *testing.T) {
	req := textingRequest()
	req.Purpose = domain.PurposeFull

	q, err := testCompiler().CompileCount(req, false)

	require.NoError(t, err)
	assert.Equal(t, domain.ModeCount, q.Mode)
	assert.Contains(t, q.SQL, "SELECT COUNT(*) FROM")
	assert.NotContains(t, q.SQL, "General_")
}

func TestCompileCount_SameWhereClauseAsExport(t *testing.T) {
	count, err := testCompiler().CompileCount(textingRequest(), false)
	require.NoError(t, err)
	full, _, err := testCompiler().CompileExport(textingRequest(), false)
	require.NoError(t, err)

	assert.Equal(t, whereClause(t, count.SQL), whereClause(t, full.SQL))
}

func TestCompileCount_NormalizedModeChangesOnlyDistrictParsing(t *testing.T) {
	req := textingRequest()
	req.Scope.DistrictKey = "City_Ward"
	req.Scope.DistrictValue = "CA##SAN FRANCISCO##WARD 7##"

	normal, err := testCompiler().CompileCount(req, false)
	require.NoError(t, err)
	fallback, err := testCompiler().CompileCount(req, true)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeFallbackCount, fallback.Mode)
	assert.Contains(t, normal.SQL, `("City_Ward" = 'WARD 7' OR "City_Ward" = 'WARD 7 (EST.)')`)
	assert.Contains(t, fallback.SQL, `("City" = 'SAN FRANCISCO' OR "City" = 'SAN FRANCISCO (EST.)')`)
	// The audience predicate is untouched by the mode flag.
	assert.Contains(t, fallback.SQL, `("Parties_Description" = 'Democratic')`)
}

// ---- compilation errors ----------------------------------------------------

func TestCompile_UnknownPurposeRejected(t *testing.T) {
	req := textingRequest()
	req.Purpose = "carrierPigeon"

	_, err := testCompiler().CompileCount(req, false)

	assert.ErrorIs(t, err, domain.ErrCompile)
}

func TestCompile_InvalidStateRejected(t *testing.T) {
	for _, state := range []string{"", "C", "CAL", "C4", "c-"} {
		req := textingRequest()
		req.Scope.State = state

		_, err := testCompiler().CompileCount(req, false)

		assert.ErrorIs(t, err, domain.ErrCompile, "state %q", state)
	}
}

func TestCompileCount_QuotedDistrictKeyCannotWidenWhereClause(t *testing.T) {
	req := textingRequest()
	req.Scope.DistrictKey = `x" = 'a') OR 1=1 --`
	req.Scope.DistrictValue = "CA##LOS ANGELES##CD 1##"

	q, err := testCompiler().CompileCount(req, false)

	require.NoError(t, err)
	// The embedded quote is doubled, so the whole key stays one identifier
	// and the trailing audience predicate survives un-commented.
	assert.Contains(t, q.SQL, `"x"" = 'a') OR 1=1 --" = 'CD 1'`)
	assert.Contains(t, q.SQL, `("Parties_Description" = 'Democratic')`)
	assert.NotContains(t, q.SQL, `"x" = 'a')`)
}

func TestCompile_LowercaseStateUpcased(t *testing.T) {
	req := textingRequest()
	req.Scope.State = "ca"

	q, err := testCompiler().CompileCount(req, false)

	require.NoError(t, err)
	assert.Contains(t, q.SQL, `public."VoterCA"`)
}

// ---- helpers ---------------------------------------------------------------

// indexFrom returns the index of sub in s at or after start, or -1.
func indexFrom(s, sub string, start int) int {
	if start >= len(s) {
		return -1
	}
	for i := start; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// whereClause extracts everything after " WHERE " from a statement.
func whereClause(t *testing.T, sql string) string {
	t.Helper()
	idx := indexFrom(sql, " WHERE ", 0)
	require.GreaterOrEqual(t, idx, 0, "no WHERE clause in %q", sql)
	return sql[idx:]
}
