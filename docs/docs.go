package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Cauldron Watch Backend",
    "description": "Level telemetry reconciliation: drains, ticket discrepancies, overflow forecasts and collection routes",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {"get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Source unavailable"}}}},
    "/api/vessels": {"get": {"tags": ["records"], "summary": "List vessels", "responses": {"200": {"description": "OK"}}}},
    "/api/tickets": {"get": {"tags": ["records"], "summary": "List pickup tickets", "responses": {"200": {"description": "OK"}}}},
    "/api/readings": {"get": {"tags": ["records"], "summary": "List level readings", "parameters": [
      {"name": "vessel_id", "in": "query", "type": "string"},
      {"name": "start_date", "in": "query", "type": "integer"},
      {"name": "end_date", "in": "query", "type": "integer"}
    ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad range"}}}},
    "/api/drains": {"get": {"tags": ["analysis"], "summary": "Reconciled drain events", "parameters": [
      {"name": "start_date", "in": "query", "type": "integer", "default": 0},
      {"name": "end_date", "in": "query", "type": "integer", "default": 2000000000}
    ], "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid telemetry"}, "502": {"description": "Source error"}}}},
    "/api/discrepancies": {"get": {"tags": ["analysis"], "summary": "Ticket discrepancies", "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid telemetry"}, "502": {"description": "Source error"}}}},
    "/api/forecast": {"get": {"tags": ["analysis"], "summary": "Overflow forecast", "parameters": [
      {"name": "as_of", "in": "query", "type": "integer"}
    ], "responses": {"200": {"description": "OK"}}}},
    "/api/routes": {"post": {"tags": ["analysis"], "summary": "Plan a collection route", "consumes": ["application/json"], "parameters": [
      {"name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
    ], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid request"}, "422": {"description": "Unknown vessel"}}}},
    "/api/import": {"post": {"tags": ["import"], "summary": "Import CSV data", "consumes": ["multipart/form-data"], "parameters": [
      {"name": "vessels", "in": "formData", "type": "file", "required": true},
      {"name": "readings", "in": "formData", "type": "file", "required": true},
      {"name": "tickets", "in": "formData", "type": "file"}
    ], "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid batch"}, "501": {"description": "Not supported by source"}}}}
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
