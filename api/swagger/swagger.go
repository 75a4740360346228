// Package swagger carries the OpenAPI document served at /docs. The
// template is maintained by hand; regenerate with swag init if the route
// surface changes.
package swagger

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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Authenticate and receive an access token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Change the current user's password",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Return the authenticated user's profile",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/requests": {
            "get": {
                "tags": ["requests"],
                "security": [{"BearerAuth": []}],
                "summary": "List all echo requests in display order",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["requests"],
                "security": [{"BearerAuth": []}],
                "summary": "Register a new echo request",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/requests/{id}": {
            "delete": {
                "tags": ["requests"],
                "security": [{"BearerAuth": []}],
                "summary": "Delete an echo request",
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/requests/{id}/complete": {
            "post": {
                "tags": ["requests"],
                "security": [{"BearerAuth": []}],
                "summary": "Mark an echo request completed",
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/requests/{id}/undo": {
            "post": {
                "tags": ["requests"],
                "security": [{"BearerAuth": []}],
                "summary": "Return a completed echo request to pending",
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/requests/{id}/field": {
            "patch": {
                "tags": ["requests"],
                "security": [{"BearerAuth": []}],
                "summary": "Update one editable field on an echo request",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/requests/export": {
            "get": {
                "tags": ["requests"],
                "security": [{"BearerAuth": []}],
                "summary": "Download the raw request table as CSV or PDF",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats/daily": {
            "get": {
                "tags": ["stats"],
                "security": [{"BearerAuth": []}],
                "summary": "Per-day creation and performed counts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats/overdue/daily": {
            "get": {
                "tags": ["stats"],
                "security": [{"BearerAuth": []}],
                "summary": "Per-day overdue counts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats/pending/daily": {
            "get": {
                "tags": ["stats"],
                "security": [{"BearerAuth": []}],
                "summary": "Per-day pending counts",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats/overdue/count": {
            "get": {
                "tags": ["stats"],
                "security": [{"BearerAuth": []}],
                "summary": "Current overdue request count",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats/today": {
            "get": {
                "tags": ["stats"],
                "security": [{"BearerAuth": []}],
                "summary": "Dashboard header summary for the current day",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats/average-completion": {
            "get": {
                "tags": ["stats"],
                "security": [{"BearerAuth": []}],
                "summary": "Mean completion hours per timed pathway",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/meta/wards": {
            "get": {
                "tags": ["meta"],
                "security": [{"BearerAuth": []}],
                "summary": "List the configured ward options",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/backups": {
            "get": {
                "tags": ["backups"],
                "security": [{"BearerAuth": []}],
                "summary": "List stored snapshots",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["backups"],
                "security": [{"BearerAuth": []}],
                "summary": "Queue an immediate snapshot run",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/backups/{filename}/token": {
            "post": {
                "tags": ["backups"],
                "security": [{"BearerAuth": []}],
                "summary": "Issue a signed download token for a snapshot",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/backups/download": {
            "get": {
                "tags": ["backups"],
                "summary": "Download a snapshot using a signed token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        }
    }
}`

// SwaggerInfo holds exported swagger metadata.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "EchoTrack API",
	Description:      "Clinical echo-imaging triage tracker.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
