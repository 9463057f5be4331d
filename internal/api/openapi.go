package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/pkg/openapi"
	"github.com/JaimeStill/costmap/pkg/routes"
)

var pathParam = regexp.MustCompile(`\{([a-zA-Z_]+)(\.\.\.)?\}`)

type operationDoc struct {
	summary  string
	body     *openapi.RequestBody
	query    []*openapi.Parameter
	response string
	errors   []int
	format   map[string]string
}

var pageQuery = []*openapi.Parameter{
	openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
	openapi.QueryParam("page_size", "integer", "Results per page", false),
	openapi.QueryParam("search", "string", "Search query", false),
	openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
}

func object(props map[string]*openapi.Schema, required ...string) *openapi.Schema {
	return &openapi.Schema{Type: "object", Properties: props, Required: required}
}

func str() *openapi.Schema { return &openapi.Schema{Type: "string"} }

func integer() *openapi.Schema { return &openapi.Schema{Type: "integer"} }

func pageOf(item string) *openapi.Schema {
	return object(map[string]*openapi.Schema{
		"data":        {Type: "array", Items: openapi.SchemaRef(item)},
		"total":       integer(),
		"page":        integer(),
		"page_size":   integer(),
		"total_pages": integer(),
	})
}

// schemas are the request and response bodies referenced by operationDocs.
var schemas = map[string]*openapi.Schema{
	"UploadRequest": object(map[string]*openapi.Schema{
		"transaction_type": {Type: "string", Enum: []any{"FAGLL03"}},
		"batch_id":         str(),
		"transactions": {Type: "array", Items: object(map[string]*openapi.Schema{
			"belegnummer":            str(),
			"kostenstelle":           str(),
			"betrag_in_hauswaehrung": {Type: "string", Description: "Amount in US or European notation"},
			"buchungsdatum":          {Type: "string", Format: "date"},
			"hauptbuchkonto":         str(),
			"text":                   str(),
		}, "belegnummer", "betrag_in_hauswaehrung")},
	}, "transaction_type", "batch_id", "transactions"),
	"UploadResult": object(map[string]*openapi.Schema{
		"status":   str(),
		"message":  str(),
		"batch_id": str(),
		"details": object(map[string]*openapi.Schema{
			"total_received":     integer(),
			"successfully_saved": integer(),
			"failed":             integer(),
		}),
		"warnings":    {Type: "array", Items: str()},
		"archive_key": str(),
	}),
	"SearchRequest": {
		Description: "Page request combined with processed record filters",
		Properties: map[string]*openapi.Schema{
			"page":          integer(),
			"page_size":     integer(),
			"search":        str(),
			"sort":          str(),
			"category":      {Type: "string", Enum: []any{"DIRECT_COST", "OUTLIER"}},
			"location_type": {Type: "string", Enum: []any{"HQ", "Floor", "Unknown"}},
			"batch_id":      str(),
			"department":    str(),
			"kostenstelle":  str(),
		},
		Type: "object",
	},
	"Record": object(map[string]*openapi.Schema{
		"belegnummer":             str(),
		"kostenstelle":            str(),
		"betrag_in_hauswaehrung":  str(),
		"department":              str(),
		"region":                  str(),
		"district":                str(),
		"location_type":           str(),
		"category":                str(),
		"status":                  str(),
		"transaction_fingerprint": str(),
		"batch_id":                str(),
	}),
	"RecordPage": pageOf("Record"),
	"Summary": object(map[string]*openapi.Schema{
		"run_id":              {Type: "string", Format: "uuid"},
		"trigger":             str(),
		"status":              {Type: "string", Enum: []any{"success", "error", "busy"}},
		"message":             str(),
		"batch_id":            str(),
		"transactions_loaded": integer(),
		"transactions_saved":  integer(),
		"transactions_failed": integer(),
		"direct_costs":        integer(),
		"outliers":            integer(),
		"total_amount":        str(),
		"processing_time":     {Type: "number"},
	}),
	"SummaryPage": pageOf("Summary"),
	"Health": object(map[string]*openapi.Schema{
		"status":         str(),
		"database":       str(),
		"processed_rows": integer(),
		"checked_at":     {Type: "string", Format: "date-time"},
	}),
	"DatabaseReport": object(map[string]*openapi.Schema{
		"database": str(),
		"tables": {Type: "array", Items: object(map[string]*openapi.Schema{
			"name":   str(),
			"exists": {Type: "boolean"},
			"rows":   integer(),
			"error":  str(),
		})},
	}),
	"Unavailable": object(map[string]*openapi.Schema{
		"database": str(),
		"error":    str(),
	}, "database"),
}

var operationDocs = map[string]operationDoc{
	"POST /transactions/upload": {
		summary:  "Upload FAGLL03 ledger rows",
		body:     openapi.RequestBodyJSON("UploadRequest", true),
		response: "UploadResult",
		errors:   []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge},
	},
	"GET /transactions/raw": {
		summary: "List uploaded ledger rows",
		query:   pageQuery,
	},
	"GET /transactions/processed": {
		summary:  "List classified transactions",
		response: "RecordPage",
		query: append(append([]*openapi.Parameter{}, pageQuery...),
			openapi.QueryParam("category", "string", "DIRECT_COST or OUTLIER", false),
			openapi.QueryParam("location_type", "string", "HQ, Floor or Unknown", false),
			openapi.QueryParam("batch_id", "string", "Processing batch", false),
			openapi.QueryParam("department", "string", "Resolved department", false),
			openapi.QueryParam("kostenstelle", "string", "Cost center substring", false),
		),
	},
	"POST /transactions/processed/search": {
		summary:  "Search classified transactions",
		body:     openapi.RequestBodyJSON("SearchRequest", true),
		response: "RecordPage",
		errors:   []int{http.StatusBadRequest},
	},
	"GET /locations/hq": {
		summary: "List HQ cost-center mappings",
		query:   pageQuery,
	},
	"GET /locations/floor": {
		summary: "List floor cost-center mappings",
		query:   pageQuery,
	},
	"GET /locations/resolve/{code}": {
		summary: "Resolve a cost-center code",
	},
	"POST /locations/import/{kind}": {
		summary: "Replace a reference table from an XLSX workbook",
		body: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {Schema: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"file":  {Type: "string", Format: "binary"},
						"sheet": {Type: "string"},
					},
					Required: []string{"file"},
				}},
			},
		},
		errors: []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge},
	},
	"POST /pipeline/run": {
		summary:  "Run the classification pipeline",
		response: "Summary",
		errors:   []int{http.StatusConflict, http.StatusInternalServerError},
	},
	"GET /pipeline/status": {
		summary: "Report pipeline state and windows",
	},
	"GET /pipeline/runs": {
		summary:  "List processing runs",
		response: "SummaryPage",
		query: append(append([]*openapi.Parameter{}, pageQuery...),
			openapi.QueryParam("status", "string", "success or error", false),
			openapi.QueryParam("trigger", "string", "manual, schedule or cli", false),
			openapi.QueryParam("batch_id", "string", "Processing batch", false),
		),
	},
	"GET /pipeline/runs/{id}": {
		summary:  "Get one processing run",
		response: "Summary",
		errors:   []int{http.StatusBadRequest, http.StatusNotFound},
		format:   map[string]string{"id": "uuid"},
	},
	"GET /health": {
		summary:  "Check database connectivity",
		response: "Health",
		errors:   []int{http.StatusServiceUnavailable},
	},
	"GET /health/database": {
		summary:  "Report ledger and reference table row counts",
		response: "DatabaseReport",
		errors:   []int{http.StatusServiceUnavailable},
	},
	"GET /environment": {
		summary: "Report non-secret runtime settings",
	},
	"GET /archive/{key}": {
		summary: "Download an archived payload or run summary",
		errors:  []int{http.StatusBadRequest, http.StatusNotFound},
	},
}

var errorRefs = map[int]string{
	http.StatusBadRequest:            "BadRequest",
	http.StatusNotFound:              "NotFound",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "PayloadTooLarge",
	http.StatusInternalServerError:   "ServerError",
	http.StatusServiceUnavailable:    "Unavailable",
}

// buildSpec describes every registered route. Patterns without a matching
// entry in operationDocs still appear with their parameters.
func buildSpec(cfg *config.Config, groups ...routes.Group) (*openapi.Spec, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(schemas)
	spec.Components.AddResponses(map[string]*openapi.Response{
		"Unavailable": openapi.ResponseJSON("Database unreachable", "Unavailable"),
	})

	for _, pattern := range routes.Patterns(groups...) {
		method, path, ok := strings.Cut(pattern, " ")
		if !ok {
			return nil, fmt.Errorf("malformed route pattern %q", pattern)
		}

		path = pathParam.ReplaceAllString(path, "{$1}")
		if path == "" {
			path = "/"
		}
		doc := operationDocs[method+" "+path]

		success := &openapi.Response{Description: "Success"}
		if doc.response != "" {
			success = openapi.ResponseJSON("Success", doc.response)
		}

		op := &openapi.Operation{
			Summary:     doc.summary,
			Tags:        []string{tag(path)},
			RequestBody: doc.body,
			Parameters:  append(pathParams(path, doc.format), doc.query...),
			Responses:   map[int]*openapi.Response{http.StatusOK: success},
		}
		for _, status := range doc.errors {
			op.Responses[status] = openapi.ResponseRef(errorRefs[status])
		}

		if err := spec.AddOperation(method, path, op); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

func pathParams(path string, formats map[string]string) []*openapi.Parameter {
	var params []*openapi.Parameter
	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		params = append(params, openapi.PathParam(m[1], "", formats[m[1]]))
	}
	return params
}

func tag(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return first
}
