// Package service contains the business logic of the voter file export
// service. The heart of it is the export execution pipeline: a cheap
// COUNT(*) probe, a zero-result recount under normalized-column parsing, and
// then either the final count or a streamed CSV export. The per-state vendor
// schema is not perfectly uniform, so probing before committing to a stream
// avoids silently returning an empty file when a column-naming fix would
// have produced results.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
	"github.com/thegoodparty/gp-api-sub001/internal/metrics"
	"github.com/thegoodparty/gp-api-sub001/internal/query"
	"github.com/thegoodparty/gp-api-sub001/internal/repo"
)

// ExportService runs the export pipeline. It holds no per-request state and
// is safe for concurrent use; parallel exports share only the connection
// pool behind the VoterRepo.
type ExportService struct {
	compiler *query.Compiler
	voters   repo.VoterRepo
	log      *slog.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(compiler *query.Compiler, voters repo.VoterRepo, log *slog.Logger) *ExportService {
	if log == nil {
		log = slog.Default()
	}
	return &ExportService{compiler: compiler, voters: voters, log: log}
}

// ExportStats reports what one pipeline run did.
type ExportStats struct {
	// Count is the final probe count: the fallback count when the primary
	// probe returned zero, the primary count otherwise.
	Count int64

	// Fallback records whether the primary count was zero and the
	// normalized-column recount ran.
	Fallback bool

	// Rows and Bytes cover the streamed CSV (zero for count-only runs).
	Rows  int64
	Bytes int64
}

// Count runs the probe phase alone and returns the final count.
func (s *ExportService) Count(ctx context.Context, req domain.ExportRequest) (int64, error) {
	count, _, err := s.probe(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("service.ExportService.Count: %w", err)
	}
	metrics.ExportsTotal.WithLabelValues(string(req.Purpose), string(domain.ModeCount)).Inc()
	return count, nil
}

// Export runs the full pipeline against w. For count-only requests nothing
// is written and the stats carry the final count. Otherwise the compiled
// export streams through the header rewriter into w; bytes already written
// before a mid-stream failure are not retracted (a CSV export is not
// transactional from the caller's point of view).
//
// All compilation happens before any connection is acquired, so a malformed
// request has no partial side effects.
func (s *ExportService) Export(ctx context.Context, req domain.ExportRequest, w io.Writer) (ExportStats, error) {
	start := time.Now()
	defer func() { metrics.ExportDuration.Observe(time.Since(start).Seconds()) }()

	count, fellBack, err := s.probe(ctx, req)
	if err != nil {
		return ExportStats{}, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	stats := ExportStats{Count: count, Fallback: fellBack}
	if req.CountOnly {
		metrics.ExportsTotal.WithLabelValues(string(req.Purpose), string(domain.ModeCount)).Inc()
		return stats, nil
	}

	// Normalized-column parsing carries over to the stream only when the
	// primary probe came up empty.
	q, mapping, err := s.compiler.CompileExport(req, fellBack)
	if err != nil {
		return ExportStats{}, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	counted := &countingWriter{dst: w}
	rewriter := newHeaderRewriter(counted, mapping)

	rows, err := s.voters.Stream(ctx, q.SQL, rewriter)
	stats.Bytes = counted.n
	if err == nil {
		err = rewriter.Flush()
		stats.Bytes = counted.n
	}
	if err != nil {
		metrics.StreamErrorsTotal.Inc()
		s.log.ErrorContext(ctx, "export stream failed",
			"error", err,
			"purpose", req.Purpose,
			"state", req.Scope.State,
			"fallback", fellBack,
			"bytes_written", stats.Bytes,
		)
		return stats, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	stats.Rows = rows
	metrics.ExportsTotal.WithLabelValues(string(req.Purpose), string(domain.ModeFull)).Inc()
	metrics.ExportRows.Add(float64(rows))
	metrics.ExportBytes.Add(float64(stats.Bytes))
	return stats, nil
}

// probe runs the primary COUNT(*) and, when it returns zero, the
// normalized-column recount. The returned count is the one any count-only
// response must use. A zero primary count is not an error; it is the trigger
// for the documented fallback.
func (s *ExportService) probe(ctx context.Context, req domain.ExportRequest) (count int64, fellBack bool, err error) {
	q, err := s.compiler.CompileCount(req, false)
	if err != nil {
		return 0, false, err
	}
	count, err = s.voters.Count(ctx, q.SQL)
	if err != nil || count != 0 {
		return count, false, err
	}

	metrics.FallbackTotal.Inc()
	fq, err := s.compiler.CompileCount(req, true)
	if err != nil {
		return 0, true, err
	}
	count, err = s.voters.Count(ctx, fq.SQL)
	return count, true, err
}
