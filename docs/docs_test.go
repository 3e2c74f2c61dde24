package docs

import (
	"strings"
	"testing"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil {
		t.Fatal("swagger info not initialized")
	}
	if SwaggerInfo.Title == "" {
		t.Fatal("swagger info missing title")
	}
}

func TestDocTemplateListsRoutes(t *testing.T) {
	routes := []string{
		`"/health"`,
		`"/api/symbols"`,
		`"/api/validate/{symbol}"`,
		`"/api/validate/{symbol}/narrative"`,
		`"/api/runs/{symbol}"`,
	}
	for _, route := range routes {
		if !strings.Contains(docTemplate, route) {
			t.Fatalf("doc template missing route %s", route)
		}
	}
}
