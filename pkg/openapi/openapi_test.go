package openapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/costmap/pkg/openapi"
)

func TestAddOperation(t *testing.T) {
	spec := openapi.NewSpec("costmap API", "1.0.0")

	get := &openapi.Operation{Summary: "list"}
	post := &openapi.Operation{Summary: "create"}

	if err := spec.AddOperation("GET", "/runs", get); err != nil {
		t.Fatal(err)
	}
	if err := spec.AddOperation("post", "/runs", post); err != nil {
		t.Fatal(err)
	}
	if err := spec.AddOperation("DELETE", "/runs", post); err == nil {
		t.Error("DELETE should be rejected")
	}

	item := spec.Paths["/runs"]
	if item == nil || item.Get != get || item.Post != post {
		t.Errorf("path item = %+v", item)
	}
}

func TestComponents(t *testing.T) {
	c := openapi.NewComponents()

	for _, name := range []string{"BadRequest", "NotFound", "Conflict", "PayloadTooLarge", "ServerError"} {
		resp, ok := c.Responses[name]
		if !ok {
			t.Errorf("response %s missing", name)
			continue
		}
		if resp.Content["application/json"].Schema.Ref != "#/components/schemas/Error" {
			t.Errorf("%s schema = %+v", name, resp.Content["application/json"].Schema)
		}
	}

	c.AddSchemas(map[string]*openapi.Schema{"Summary": {Type: "object"}})
	if _, ok := c.Schemas["Summary"]; !ok {
		t.Error("AddSchemas did not merge")
	}
	if _, ok := c.Schemas["PageRequest"]; !ok {
		t.Error("AddSchemas dropped existing schema")
	}
}

func TestPathParam(t *testing.T) {
	p := openapi.PathParam("id", "run id", "uuid")
	if !p.Required || p.In != "path" || p.Schema.Format != "uuid" {
		t.Errorf("PathParam() = %+v", p)
	}
}

func TestServeSpec(t *testing.T) {
	spec := openapi.NewSpec("costmap API", "1.0.0")
	spec.SetDescription("ledger classification")
	spec.AddServer("/api")

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got openapi.Spec
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Info.Description != "ledger classification" || len(got.Servers) != 1 || got.Servers[0].URL != "/api" {
		t.Errorf("spec = %+v", got)
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_OPENAPI_TITLE", "ledger API")

	var c openapi.Config
	if err := c.Finalize(&openapi.ConfigEnv{Title: "TEST_OPENAPI_TITLE"}); err != nil {
		t.Fatal(err)
	}
	if c.Title != "ledger API" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.Description == "" {
		t.Error("Description default missing")
	}

	c.Merge(&openapi.Config{Description: "override"})
	if c.Description != "override" || c.Title != "ledger API" {
		t.Errorf("Merge() = %+v", c)
	}
}
