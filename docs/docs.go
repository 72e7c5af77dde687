// Package docs: spec OpenAPI servida en /swagger. Regenerar con swag init
// cuando cambien las rutas.
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
        "/health": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["ops"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/incidents/{incidentID}/patients": {
            "get": {
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "List patients of an incident",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "403": {"description": "Forbidden"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Create a patient record; caller becomes its author",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Letter already taken"}
                }
            }
        },
        "/incidents/{incidentID}/patients/{letter}/status": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["patients"],
                "summary": "Mark the ePRF incomplete or complete",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/incidents/{incidentID}/grants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "List incident-scope grants",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Grant or overwrite an incident-scope permission",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}}
            }
        },
        "/incidents/{incidentID}/grants/{userID}": {
            "delete": {
                "tags": ["grants"],
                "summary": "Revoke an incident-scope grant",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}
            }
        },
        "/incidents/{incidentID}/patients/{letter}/grants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "List patient-scope grants",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Grant or overwrite a patient-scope permission",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "path", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}}
            }
        },
        "/incidents/{incidentID}/permissions/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["grants"],
                "summary": "Effective permission level of the caller",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/incidents/{incidentID}/patients/{letter}/locks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["locks"],
                "summary": "List section locks",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["locks"],
                "summary": "Lock a section to a minimum level (last writer wins)",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "path", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}}
            }
        },
        "/incidents/{incidentID}/patients/{letter}/locks/{section}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["locks"],
                "summary": "Release a section lock",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "path", "required": true},
                    {"type": "string", "name": "section", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/incidents/{incidentID}/patients/{letter}/transfer": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["transfers"],
                "summary": "Transfer patient record ownership",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true},
                    {"type": "string", "name": "letter", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Ownership mismatch"}
                }
            }
        },
        "/incidents/{incidentID}/transfer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transfers"],
                "summary": "Transfer the whole incident, per-patient result detail",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/incidents/{incidentID}/access-requests": {
            "get": {
                "produces": ["application/json"],
                "tags": ["access-requests"],
                "summary": "List access requests, pending first",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["access-requests"],
                "summary": "Submit an access request",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/access-requests/{requestID}/review": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["access-requests"],
                "summary": "Approve or deny a pending request",
                "parameters": [
                    {"type": "string", "name": "requestID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/incidents/{incidentID}/share-links": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["share-links"],
                "summary": "Create a single-use share link",
                "parameters": [
                    {"type": "string", "name": "incidentID", "in": "path", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}}
            }
        },
        "/share-links/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["share-links"],
                "summary": "Inspect a share link without consuming it",
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["share-links"],
                "summary": "Revoke a share link",
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}
            }
        },
        "/share-links/{code}/redeem": {
            "post": {
                "produces": ["application/json"],
                "tags": ["share-links"],
                "summary": "Redeem a share link (first redeemer wins)",
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Expired or used by another user"}
                }
            }
        },
        "/me/notifications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "List the caller inbox, newest first",
                "parameters": [
                    {"type": "boolean", "name": "unread", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/notifications/{notificationID}/read": {
            "post": {
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Mark a notification as read",
                "parameters": [
                    {"type": "string", "name": "notificationID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ePRF Collaboration API",
	Description:      "Permission, locking, transfer and share-link engine for multi-crew ePRF collaboration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
