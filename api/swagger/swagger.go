package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Portal API",
        "description": "Sign-in, account status enforcement and results approval for the university portal",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Session sign-in and sign-out"},
        {"name": "Session", "description": "Current principal and access flags"},
        {"name": "Results Approval", "description": "HOD, dean, bursary and registry sign-off of result batches"},
        {"name": "Health", "description": "Liveness and readiness probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness check",
                "description": "Pings the database and session store",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in",
                "description": "Authenticate by username, matric number or email. Browsers are redirected; JSON clients receive the landing path.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Signed in", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Account status does not allow sign-in", "schema": {"$ref": "#/definitions/Envelope"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign out",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Signed out", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/staff/session/current": {
            "get": {
                "tags": ["Session"],
                "summary": "Current session",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Session payload", "schema": {"$ref": "#/definitions/SessionEnvelope"}},
                    "401": {"description": "Not signed in", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Menu not allowed for role", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/results-approval/batches": {
            "get": {
                "tags": ["Results Approval"],
                "summary": "List result batches",
                "description": "Batches visible to the caller's approval stage within their department or school. An explicit status filter replaces the stage default.",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "session", "type": "string"},
                    {"in": "query", "name": "semester", "type": "string"},
                    {"in": "query", "name": "level", "type": "string"},
                    {"in": "query", "name": "course", "type": "string"},
                    {"in": "query", "name": "status", "type": "string", "description": "Comma separated batch statuses"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "offset", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Batches", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Role or scope not permitted", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/results-approval/action": {
            "post": {
                "tags": ["Results Approval"],
                "summary": "Approve or reject a result batch",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ApprovalActionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Transition applied", "schema": {"$ref": "#/definitions/ApprovalEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Read-only account, scope mismatch or wrong stage", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Batch not found", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Batch changed concurrently", "schema": {"$ref": "#/definitions/Envelope"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/results-approval/batches/{id}/history": {
            "get": {
                "tags": ["Results Approval"],
                "summary": "Approval history of a batch",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Audit trail", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Role or scope not permitted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Batch not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "Envelope": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "data": {"type": "object"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "meta": {"type": "object"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["identifier", "password"],
            "properties": {
                "identifier": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SessionView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "role": {"type": "string"},
                "status": {"type": "string"},
                "readOnly": {"type": "boolean"},
                "allowedModules": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SessionEnvelope": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "data": {"$ref": "#/definitions/SessionView"}
            }
        },
        "ApprovalActionRequest": {
            "type": "object",
            "required": ["batchId", "action"],
            "properties": {
                "batchId": {"type": "string"},
                "action": {"type": "string", "enum": ["approve", "reject"]},
                "remark": {"type": "string"}
            }
        },
        "ApprovalOutcome": {
            "type": "object",
            "properties": {
                "batchId": {"type": "string"},
                "fromStatus": {"type": "string"},
                "newStatus": {"type": "string"},
                "audited": {"type": "boolean"}
            }
        },
        "ApprovalEnvelope": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "data": {"$ref": "#/definitions/ApprovalOutcome"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
