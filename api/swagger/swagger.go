package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Absensi API",
        "description": "Library visit check-in and statistics service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "DeviceToken": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Students", "description": "Student roster lookups"},
        {"name": "Attendance", "description": "Daily library check-ins"},
        {"name": "Statistics", "description": "Visit averages and rankings"},
        {"name": "System", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["System"],
                "summary": "Counter snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/card/{cardId}": {
            "get": {
                "tags": ["Students"],
                "summary": "Find student by card",
                "parameters": [
                    {"name": "cardId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Card not registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a batch of check-ins for today",
                "security": [{"DeviceToken": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/CheckinItem"}}}
                ],
                "responses": {
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Everyone already checked in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/scan": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Check in by card read",
                "security": [{"DeviceToken": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Card not registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already checked in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/attendance/recent": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Latest visits",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Average visits per student",
                "parameters": [
                    {"$ref": "#/parameters/scope"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "integer"},
                    {"$ref": "#/parameters/bulan"},
                    {"$ref": "#/parameters/tahun"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"},
                    {"$ref": "#/parameters/period"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window or scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/statistics/top-visitors": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Most frequent visitors",
                "parameters": [
                    {"$ref": "#/parameters/scope"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "integer"},
                    {"$ref": "#/parameters/bulan"},
                    {"$ref": "#/parameters/tahun"},
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"},
                    {"$ref": "#/parameters/period"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/statistics/overview": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Averages, rankings and recent visits together",
                "parameters": [
                    {"$ref": "#/parameters/scope"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"$ref": "#/parameters/period"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "scope": {"name": "scope", "in": "query", "type": "string", "enum": ["global", "class", "level"]},
        "bulan": {"name": "bulan", "in": "query", "type": "string", "description": "YYYY-MM"},
        "tahun": {"name": "tahun", "in": "query", "type": "string", "description": "YYYY"},
        "startDate": {"name": "startDate", "in": "query", "type": "string", "format": "date"},
        "endDate": {"name": "endDate", "in": "query", "type": "string", "format": "date"},
        "period": {"name": "period", "in": "query", "type": "string", "enum": ["month", "year", "all"]}
    },
    "definitions": {
        "CheckinItem": {
            "type": "object",
            "properties": {
                "studentId": {"type": "integer"},
                "id": {"type": "integer", "description": "Legacy alias of studentId"}
            }
        },
        "ScanRequest": {
            "type": "object",
            "required": ["cardId"],
            "properties": {
                "cardId": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
