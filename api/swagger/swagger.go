package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PPIS API",
        "description": "School management backend: registry, scores, results and reconciliation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, signup and session reconciliation"},
        {"name": "Profiles", "description": "Pre-seeded registry profiles"},
        {"name": "Students", "description": "Student roster management"},
        {"name": "Classes", "description": "School classes and form teachers"},
        {"name": "Subjects", "description": "Subject catalogue"},
        {"name": "Assignments", "description": "Teacher-subject workload"},
        {"name": "Scores", "description": "Score entry, approval and publication"},
        {"name": "Results", "description": "Aggregated results, positions and broadsheets"},
        {"name": "Remarks", "description": "Form teacher remarks"},
        {"name": "Settings", "description": "School branding and current term"},
        {"name": "Dashboard", "description": "Admin summary"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by username and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/resolve": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Reconcile the session identity against the registry",
                "responses": {
                    "200": {"description": "Merged profile", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "204": {"description": "No registry row"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/results/students/{id}": {
            "get": {
                "tags": ["Results"],
                "summary": "Aggregate result and class position for one student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "integer"},
                    {"name": "session", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/results/classes/{id}/broadsheet": {
            "get": {
                "tags": ["Results"],
                "summary": "Ranked broadsheet for a class and term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "query", "required": true, "type": "integer"},
                    {"name": "session", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/bulk": {
            "post": {
                "tags": ["Scores"],
                "summary": "Save a batch of scores atomically",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkScoresRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "SignupRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"}
            },
            "required": ["username", "password", "full_name"]
        },
        "BulkScoresRequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/UpsertScoreRequest"}
                }
            },
            "required": ["items"]
        },
        "UpsertScoreRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "class_id": {"type": "string"},
                "term": {"type": "integer"},
                "session": {"type": "string"},
                "first_ca": {"type": "number"},
                "second_ca": {"type": "number"},
                "exam": {"type": "number"}
            },
            "required": ["student_id", "subject_id", "class_id", "term", "session"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
