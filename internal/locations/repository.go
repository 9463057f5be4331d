package locations

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/costmap/pkg/pagination"
	"github.com/JaimeStill/costmap/pkg/query"
	"github.com/JaimeStill/costmap/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
	cacheTTL   time.Duration
}

// New creates a reference table repository implementing the System interface.
// cacheTTL configures the resolver used by Resolve.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config, cacheTTL time.Duration) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "locations"),
		pagination: pagination,
		cacheTTL:   cacheTTL,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) LoadHQ(ctx context.Context) ([]HQRow, error) {
	q, args := query.NewBuilder(hqProjection, hqDefaultSort...).Build()
	rows, err := repository.QueryMany(ctx, r.db, q, args, scanHQ)
	if err != nil {
		return nil, fmt.Errorf("load hq mapping: %w", err)
	}
	r.logger.Info("hq mapping loaded", "count", len(rows))
	return rows, nil
}

func (r *repo) LoadFloor(ctx context.Context) ([]FloorRow, error) {
	q, args := query.NewBuilder(floorProjection, floorDefaultSort...).Build()
	rows, err := repository.QueryMany(ctx, r.db, q, args, scanFloor)
	if err != nil {
		return nil, fmt.Errorf("load floor mapping: %w", err)
	}
	r.logger.Info("floor mapping loaded", "count", len(rows))
	return rows, nil
}

func (r *repo) ListHQ(
	ctx context.Context,
	page pagination.PageRequest,
) (*pagination.PageResult[HQRow], error) {
	page.Normalize(r.pagination)
	qb := query.
		NewBuilder(hqProjection, hqDefaultSort...).
		WhereSearch(page.Search, "kostenstelle", "abteilung", "bezeichnung")
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}
	result, err := repository.QueryPage(ctx, r.db, qb, page, scanHQ)
	if err != nil {
		return nil, fmt.Errorf("list hq mapping: %w", err)
	}
	return result, nil
}

func (r *repo) ListFloor(
	ctx context.Context,
	page pagination.PageRequest,
) (*pagination.PageResult[FloorRow], error) {
	page.Normalize(r.pagination)
	qb := query.
		NewBuilder(floorProjection, floorDefaultSort...).
		WhereSearch(page.Search, "kostenstelle", "department", "region", "district")
	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}
	result, err := repository.QueryPage(ctx, r.db, qb, page, scanFloor)
	if err != nil {
		return nil, fmt.Errorf("list floor mapping: %w", err)
	}
	return result, nil
}

func (r *repo) ReplaceHQ(ctx context.Context, rows []HQRow) (ImportResult, error) {
	unique, collisions := dedupe(rows, func(row HQRow) string { return row.CostCenter })
	result := ImportResult{Kind: KindHQ, Received: len(rows), Collisions: collisions}

	saved, err := r.replace(ctx, hqTable, insertHQSQL, len(unique), func(i int) []any {
		return hqArgs(unique[i])
	})
	if err != nil {
		return result, err
	}

	result.Saved = saved
	r.logImport(result)
	return result, nil
}

func (r *repo) ReplaceFloor(ctx context.Context, rows []FloorRow) (ImportResult, error) {
	unique, collisions := dedupe(rows, func(row FloorRow) string { return row.CostCenter })
	result := ImportResult{Kind: KindFloor, Received: len(rows), Collisions: collisions}

	saved, err := r.replace(ctx, floorTable, insertFloorSQL, len(unique), func(i int) []any {
		return floorArgs(unique[i])
	})
	if err != nil {
		return result, err
	}

	result.Saved = saved
	r.logImport(result)
	return result, nil
}

func (r *repo) Import(ctx context.Context, kind string, rd io.Reader, sheet string) (ImportResult, error) {
	switch strings.ToLower(kind) {
	case KindHQ:
		rows, err := ReadHQWorkbook(rd, sheet)
		if err != nil {
			return ImportResult{Kind: KindHQ}, err
		}
		return r.ReplaceHQ(ctx, rows)
	case KindFloor:
		rows, err := ReadFloorWorkbook(rd, sheet)
		if err != nil {
			return ImportResult{Kind: KindFloor}, err
		}
		return r.ReplaceFloor(ctx, rows)
	default:
		return ImportResult{}, ErrInvalidKind
	}
}

func (r *repo) Resolve(ctx context.Context, codes ...string) ([]Match, error) {
	var (
		hq    []HQRow
		floor []FloorRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		hq, err = r.LoadHQ(gctx)
		return err
	})
	g.Go(func() (err error) {
		floor, err = r.LoadFloor(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := BuildIndex(hq, floor)
	return MatchCodes(idx, NewResolver(r.cacheTTL), codes...), nil
}

// MatchCodes resolves each code with resolver against idx.
func MatchCodes(idx *Index, resolver *Resolver, codes ...string) []Match {
	matches := make([]Match, 0, len(codes))
	for _, code := range codes {
		m := Match{
			Code:         code,
			Normalized:   NormalizeCode(code),
			LocationType: TypeUnknown,
		}
		if res, ok := resolver.Resolve(code, idx); ok {
			m.Resolved = true
			m.LocationType = res.Type
			m.Location = res.Location
		}
		matches = append(matches, m)
	}
	return matches
}

// replace deletes every row of table and inserts count rows built by args,
// all inside one transaction.
func (r *repo) replace(
	ctx context.Context,
	table, insertSQL string,
	count int,
	args func(i int) []any,
) (int, error) {
	if count == 0 {
		return 0, ErrEmptyImport
	}

	saved, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM public."+table); err != nil {
			return 0, err
		}
		for i := range count {
			if _, err := tx.ExecContext(ctx, insertSQL, args(i)...); err != nil {
				return 0, fmt.Errorf("row %d: %w", i, err)
			}
		}
		return count, nil
	})
	if err != nil {
		return 0, fmt.Errorf("replace %s: %w", table, err)
	}
	return saved, nil
}

func (r *repo) logImport(result ImportResult) {
	if result.Collisions > 0 {
		r.logger.Warn(
			"duplicate cost centers in reference import, last row kept",
			"kind", result.Kind,
			"collisions", result.Collisions,
		)
	}
	r.logger.Info(
		"reference table replaced",
		"kind", result.Kind,
		"received", result.Received,
		"saved", result.Saved,
	)
}

// dedupe trims keys, drops rows with an empty key, and keeps the last row
// per key at the position of its first occurrence.
func dedupe[T any](rows []T, key func(T) string) ([]T, int) {
	positions := make(map[string]int, len(rows))
	out := make([]T, 0, len(rows))
	collisions := 0

	for _, row := range rows {
		k := strings.TrimSpace(key(row))
		if k == "" {
			continue
		}
		if pos, ok := positions[k]; ok {
			out[pos] = row
			collisions++
			continue
		}
		positions[k] = len(out)
		out = append(out, row)
	}

	return out, collisions
}
