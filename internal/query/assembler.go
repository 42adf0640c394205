package query

import (
	"fmt"
	"strings"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
)

// Compiler assembles export requests into SQL SELECT statements against the
// vendor's per-state voter tables. It is stateless apart from the configured
// temporal window and safe for concurrent use.
type Compiler struct {
	window Window
}

// NewCompiler returns a Compiler using the given historical-election window.
func NewCompiler(w Window) *Compiler {
	return &Compiler{window: w}
}

// CompileCount builds the COUNT(*) form of the request's query. normalized
// selects normalized-column parsing for the geographic scope, used by the
// zero-result fallback probe.
func (c *Compiler) CompileCount(req domain.ExportRequest, normalized bool) (domain.CompiledQuery, error) {
	sql, _, err := c.compile(req, true, normalized)
	if err != nil {
		return domain.CompiledQuery{}, err
	}
	mode := domain.ModeCount
	if normalized {
		mode = domain.ModeFallbackCount
	}
	return domain.CompiledQuery{SQL: sql, Mode: mode}, nil
}

// CompileExport builds the full row-export query plus the column mapping the
// exporter must use to rewrite the CSV header. The mapping lists exactly the
// projected columns, in projection order.
func (c *Compiler) CompileExport(req domain.ExportRequest, normalized bool) (domain.CompiledQuery, domain.ColumnMapping, error) {
	sql, mapping, err := c.compile(req, false, normalized)
	if err != nil {
		return domain.CompiledQuery{}, nil, err
	}
	return domain.CompiledQuery{SQL: sql, Mode: domain.ModeFull}, mapping, nil
}

// compile is the shared assembly path. countMode swaps the projection for
// COUNT(*) and drops the historical year columns; everything in the WHERE
// clause is identical between the two, so the count is an exact probe of the
// export.
func (c *Compiler) compile(req domain.ExportRequest, countMode, normalized bool) (string, domain.ColumnMapping, error) {
	state, err := stateCode(req.Scope.State)
	if err != nil {
		return "", nil, err
	}

	proj, err := resolveProjection(req)
	if err != nil {
		return "", nil, err
	}

	table := `public."` + tablePrefix + state + `"`

	// Historical columns only belong to the default full projection, and
	// only to row exports; counts never select them.
	if !countMode && req.Purpose == domain.PurposeFull && len(req.ExplicitColumns) == 0 {
		for _, year := range c.window.YearColumns(req.EvenElectionYear()) {
			proj.mapping = append(proj.mapping, domain.ColumnPair{Source: year, Label: year})
		}
	}

	predicates := proj.predicates
	if proj.dedupeHouseholds {
		predicates = append(predicates, householdDedupePredicate(state))
	}
	if d := districtPredicate(req.Scope.DistrictKey, req.Scope.DistrictValue, normalized); d != "" {
		predicates = append(predicates, d)
	}
	if a := audiencePredicate(req.AudienceTokens); a != "" {
		predicates = append(predicates, a)
	}

	selection := "COUNT(*)"
	if !countMode {
		quoted := make([]string, len(proj.mapping))
		for i, pair := range proj.mapping {
			quoted[i] = quoteIdent(pair.Source)
		}
		selection = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selection)
	b.WriteString(" FROM ")
	b.WriteString(table)
	if len(predicates) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(predicates, " AND "))
		// The limit rides on the WHERE clause: an unfiltered full-table
		// export is never limited. Inherited behavior, kept deliberately.
		if req.RowLimit > 0 {
			fmt.Fprintf(&b, " LIMIT %d", req.RowLimit)
		}
	}

	return b.String(), proj.mapping, nil
}

// householdDedupePredicate builds the direct-mail existence check keeping
// only rows whose household identifier appears on exactly one row of the
// per-state table, so each household receives a single mail piece.
func householdDedupePredicate(state string) string {
	outer := quoteIdent(tablePrefix+state) + "." + quoteIdent(colHouseholdID)
	inner := "household." + quoteIdent(colHouseholdID)
	return "EXISTS (SELECT 1 FROM public." + quoteIdent(tablePrefix+state) + " AS household" +
		" WHERE " + inner + " = " + outer +
		" GROUP BY " + inner +
		" HAVING COUNT(*) = 1)"
}

// stateCode validates and upcases a two-letter state code. The code is
// spliced into the table name, so anything but two ASCII letters is rejected
// as a compilation error.
func stateCode(raw string) (string, error) {
	state := strings.ToUpper(raw)
	if len(state) != 2 || state[0] < 'A' || state[0] > 'Z' || state[1] < 'A' || state[1] > 'Z' {
		return "", fmt.Errorf("invalid state code %q: %w", raw, domain.ErrCompile)
	}
	return state, nil
}
