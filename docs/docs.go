// Package docs is generated by swaggo/swag and served at /swagger/*any.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/reconcile/match": {
            "post": {
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["reconciliation"],
                "summary": "Match an import against orders",
                "parameters": [
                    {"description": "Pasted import", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/handler.MatchRequest"}},
                    {"type": "file", "description": "Import file (multipart)", "name": "file", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/reconcile/confirm": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reconciliation"],
                "summary": "Confirm matched rows into the ledger",
                "parameters": [
                    {"description": "Accepted rows", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ConfirmRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/reconcile/pending": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reconciliation"],
                "summary": "List orders without a ledger record",
                "parameters": [
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true},
                    {"type": "string", "description": "Comma separated order statuses", "name": "order_status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/reconcile/batches/{batch_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reconciliation"],
                "summary": "Get the records of a confirmed batch",
                "parameters": [
                    {"type": "string", "description": "Batch ID", "name": "batch_id", "in": "path", "required": true},
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/reconcile/orders/{order_id}/records": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reconciliation"],
                "summary": "Get the ledger records of an order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "order_id", "in": "path", "required": true},
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/statements": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["statements"],
                "summary": "Ingest a bank statement",
                "parameters": [
                    {"description": "Statement upload", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.StatementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/statements/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["statements"],
                "summary": "Get a statement batch",
                "parameters": [
                    {"type": "integer", "description": "Batch ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/debt/cases": {
            "get": {
                "produces": ["application/json"],
                "tags": ["debt"],
                "summary": "List debt cases",
                "parameters": [
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true},
                    {"type": "string", "description": "active or completed", "name": "status", "in": "query"},
                    {"type": "integer", "description": "Minimum days overdue", "name": "min_days_overdue", "in": "query"},
                    {"type": "string", "description": "never or tracked", "name": "tracking", "in": "query"},
                    {"type": "string", "description": "Order ID substring", "name": "order_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}}
            }
        },
        "/api/v1/debt/cases/export": {
            "get": {
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["debt"],
                "summary": "Export debt cases as a spreadsheet",
                "parameters": [
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/debt/cases/{order_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["debt"],
                "summary": "Get a debt case with its attempt history",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "order_id", "in": "path", "required": true},
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/debt/cases/{order_id}/attempts": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["debt"],
                "summary": "Record a collection attempt",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "order_id", "in": "path", "required": true},
                    {"description": "Attempt", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.AttemptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/debt/cases/{order_id}/close": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["debt"],
                "summary": "Close a debt case as fully collected",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "order_id", "in": "path", "required": true},
                    {"description": "Close", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CloseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/debt/cases/{order_id}/reopen": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["debt"],
                "summary": "Reopen a closed debt case",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "order_id", "in": "path", "required": true},
                    {"description": "Reopen", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ReopenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["summary"],
                "summary": "Monthly debt and verification summary",
                "parameters": [
                    {"type": "integer", "description": "Company ID", "name": "company_id", "in": "query", "required": true},
                    {"type": "integer", "description": "Month (1-12)", "name": "month", "in": "query", "required": true},
                    {"type": "integer", "description": "Year", "name": "year", "in": "query", "required": true},
                    {"type": "string", "description": "active or completed", "name": "status", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "handler.MatchRequest": {
            "type": "object",
            "required": ["company_id", "text"],
            "properties": {
                "company_id": {"type": "integer"},
                "text": {"type": "string"},
                "skip_header": {"type": "boolean"},
                "order_statuses": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.ConfirmRow": {
            "type": "object",
            "required": ["amount", "status"],
            "properties": {
                "source_row": {"type": "integer"},
                "external_ref": {"type": "string"},
                "amount": {"type": "string"},
                "note": {"type": "string"},
                "status": {"type": "string"},
                "matched_order_id": {"type": "string"},
                "manual_order_id": {"type": "string"}
            }
        },
        "handler.ConfirmRequest": {
            "type": "object",
            "required": ["company_id", "rows"],
            "properties": {
                "company_id": {"type": "integer"},
                "batch_id": {"type": "string"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/handler.ConfirmRow"}}
            }
        },
        "handler.StatementRequest": {
            "type": "object",
            "required": ["bank_account_id", "company_id", "text", "user_id"],
            "properties": {
                "company_id": {"type": "integer"},
                "bank_account_id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "text": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "handler.AttemptRequest": {
            "type": "object",
            "required": ["amount_collected", "company_id", "result_status", "user_id"],
            "properties": {
                "company_id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "amount_collected": {"type": "string"},
                "result_status": {"type": "string"},
                "note": {"type": "string"},
                "is_complete": {"type": "boolean"},
                "expected_latest_attempt_id": {"type": "integer"}
            }
        },
        "handler.CloseRequest": {
            "type": "object",
            "required": ["company_id", "user_id"],
            "properties": {
                "company_id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "note": {"type": "string"},
                "expected_latest_attempt_id": {"type": "integer"}
            }
        },
        "handler.ReopenRequest": {
            "type": "object",
            "required": ["company_id", "user_id"],
            "properties": {
                "company_id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "expected_latest_attempt_id": {"type": "integer"}
            }
        },
        "response.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"},
                "fields": {}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"$ref": "#/definitions/response.ErrorDetail"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Return Reconciliation and Debt Collection API",
	Description:      "Matches return and bank statement imports against orders, keeps the verified return ledger, and tracks debt collection cases",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
