package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/costmap/pkg/formatting"
	"github.com/JaimeStill/costmap/pkg/openapi"
	"github.com/JaimeStill/costmap/pkg/pagination"
)

const (
	EnvAPIBasePath      = "COSTMAP_API_BASE_PATH"
	EnvAPIMaxUploadSize = "COSTMAP_API_MAX_UPLOAD_SIZE"
	EnvAPIMaxBatchSize  = "COSTMAP_API_MAX_BATCH_SIZE"
)

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "COSTMAP_OPENAPI_TITLE",
	Description: "COSTMAP_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "COSTMAP_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "COSTMAP_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, upload limits, pagination, and OpenAPI document settings.
type APIConfig struct {
	BasePath      string            `toml:"base_path"`
	MaxUploadSize string            `toml:"max_upload_size"`
	MaxBatchSize  int               `toml:"max_batch_size"`
	Pagination    pagination.Config `toml:"pagination"`
	OpenAPI       openapi.Config    `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}

	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 1000
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvAPIMaxBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxBatchSize = n
		}
	}
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
