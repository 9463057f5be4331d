package locations

import (
	"context"
	"io"

	"github.com/JaimeStill/costmap/pkg/pagination"
)

// Match reports how a single code resolved against the current reference tables.
type Match struct {
	Code         string    `json:"code"`
	Normalized   string    `json:"normalized"`
	Resolved     bool      `json:"resolved"`
	LocationType string    `json:"location_type"`
	Location     *Location `json:"location,omitempty"`
}

// ImportResult summarizes a reference table replacement.
type ImportResult struct {
	Kind       string `json:"kind"`
	Received   int    `json:"received"`
	Saved      int    `json:"saved"`
	Collisions int    `json:"collisions"`
}

// System defines the public contract for reference table operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	LoadHQ(ctx context.Context) ([]HQRow, error)
	LoadFloor(ctx context.Context) ([]FloorRow, error)

	ListHQ(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[HQRow], error)
	ListFloor(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[FloorRow], error)

	// ReplaceHQ swaps the HQ table contents for rows in one transaction.
	ReplaceHQ(ctx context.Context, rows []HQRow) (ImportResult, error)

	// ReplaceFloor swaps the floor table contents for rows in one transaction.
	ReplaceFloor(ctx context.Context, rows []FloorRow) (ImportResult, error)

	// Import reads an XLSX workbook of the given kind and replaces that table.
	Import(ctx context.Context, kind string, r io.Reader, sheet string) (ImportResult, error)

	// Resolve resolves codes against freshly loaded reference tables.
	Resolve(ctx context.Context, codes ...string) ([]Match, error)
}
