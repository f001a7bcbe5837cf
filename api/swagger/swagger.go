package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA BK API",
        "description": "Case assignment and daily ledger service for the counseling office",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Cases", "description": "Case intake and escalation gate"},
        {"name": "Teachers", "description": "Counselor roster and duty flags"},
        {"name": "Settlement", "description": "End-of-day rollover"},
        {"name": "Archive", "description": "Settled day partitions and reports"},
        {"name": "Settings", "description": "Engine tunables"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/cases": {
            "post": {
                "tags": ["Cases"],
                "summary": "Submit a case for assignment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IntakeCaseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Assignment outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "No eligible staff"}
                }
            }
        },
        "/api/v1/cases/{id}/confirm": {
            "post": {
                "tags": ["Cases"],
                "summary": "Confirm a pending assignment",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Committed assignment"},
                    "409": {"description": "Case is not pending"}
                }
            }
        },
        "/api/v1/cases/{id}/reject": {
            "post": {
                "tags": ["Cases"],
                "summary": "Reject a pending assignment and reassign",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Re-evaluated outcome"},
                    "409": {"description": "Case is not pending"}
                }
            }
        },
        "/api/v1/cases/pending": {
            "get": {
                "tags": ["Cases"],
                "summary": "List assignments awaiting confirmation",
                "responses": {
                    "200": {"description": "Pending outcomes"}
                }
            }
        },
        "/api/v1/cases/today": {
            "get": {
                "tags": ["Cases"],
                "summary": "List today's open cases",
                "responses": {
                    "200": {"description": "Open cases"}
                }
            }
        },
        "/api/v1/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List the roster with current loads",
                "responses": {
                    "200": {"description": "Roster"}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Register a roster member",
                "responses": {
                    "201": {"description": "Created teacher"}
                }
            }
        },
        "/api/v1/teachers/{id}/flags": {
            "patch": {
                "tags": ["Teachers"],
                "summary": "Patch day-scoped duty flags",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTeacherFlagsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated teacher"},
                    "404": {"description": "Teacher not found"}
                }
            }
        },
        "/api/v1/teachers/{id}/load": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Recompute a teacher's load for a period",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "period", "in": "query", "type": "string", "required": true, "description": "YYYY or YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "Recomputed load"}
                }
            }
        },
        "/api/v1/settlement/run": {
            "post": {
                "tags": ["Settlement"],
                "summary": "Settle a day",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RunSettlementRequest"}}
                ],
                "responses": {
                    "200": {"description": "Settlement summary"},
                    "422": {"description": "Settlement day cannot be inferred"}
                }
            }
        },
        "/api/v1/archive/{date}": {
            "get": {
                "tags": ["Archive"],
                "summary": "Read one archived day, optionally as CSV or PDF",
                "parameters": [
                    {"name": "date", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Archived partition or rendered report"},
                    "404": {"description": "No archived cases for the day"}
                }
            }
        },
        "/api/v1/archive/{date}/export": {
            "post": {
                "tags": ["Archive"],
                "summary": "Export the archived day as a PDF and return a signed download link",
                "parameters": [
                    {"name": "date", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Export result with download token"},
                    "404": {"description": "No archived cases for the day"},
                    "503": {"description": "Exports are disabled"}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Archive"],
                "summary": "Download an exported report with a signed token",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF file"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/api/v1/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Read the active settings",
                "responses": {
                    "200": {"description": "Active settings"}
                }
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated settings"}
                }
            }
        }
    },
    "definitions": {
        "IntakeCaseRequest": {
            "type": "object",
            "required": ["case_type"],
            "properties": {
                "case_type": {"type": "string", "enum": ["REFERRAL", "SUPPORT", "BOTH"]},
                "is_new": {"type": "boolean"},
                "is_test_case": {"type": "boolean"},
                "diagnosis_count": {"type": "integer", "minimum": 0, "maximum": 6},
                "reason": {"type": "string"}
            }
        },
        "UpdateTeacherFlagsRequest": {
            "type": "object",
            "properties": {
                "absent_on": {"type": "string", "format": "date"},
                "backup_on": {"type": "string", "format": "date"},
                "tester_on": {"type": "string", "format": "date"}
            }
        },
        "RunSettlementRequest": {
            "type": "object",
            "properties": {
                "day": {"type": "string", "format": "date"}
            }
        },
        "UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "dailyCaseLimit": {"type": "integer"},
                "scoreTest": {"type": "integer"},
                "scoreNewBonus": {"type": "integer"},
                "scoreTypeReferral": {"type": "integer"},
                "scoreTypeSupport": {"type": "integer"},
                "scoreTypeBoth": {"type": "integer"},
                "backupBonusAmount": {"type": "integer"},
                "absencePenaltyAmount": {"type": "integer"}
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
