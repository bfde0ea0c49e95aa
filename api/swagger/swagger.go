package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Ouroboros Study API",
        "description": "Study plans, study history, statistics and the study timer",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Plans", "description": "Study plans and their syllabus trees"},
        {"name": "Syllabus", "description": "Syllabus source documents"},
        {"name": "StudyRecords", "description": "Study history"},
        {"name": "Statistics", "description": "Plan progress and reviews"},
        {"name": "Backup", "description": "Whole-database export, import and wipe"},
        {"name": "Reports", "description": "History exports"},
        {"name": "Timer", "description": "Study timer"}
    ],
    "paths": {
        "/plans": {
            "get": {
                "tags": ["Plans"],
                "summary": "List study plans",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Plans"],
                "summary": "Create a study plan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/selected": {
            "get": {
                "tags": ["Plans"],
                "summary": "Get the selected study plan",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No plan available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/{id}": {
            "get": {
                "tags": ["Plans"],
                "summary": "Get a study plan",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Plans"],
                "summary": "Replace a study plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Plans"],
                "summary": "Delete a study plan",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/plans/{id}/select": {
            "post": {
                "tags": ["Plans"],
                "summary": "Mark a study plan as selected",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/syllabus/sources": {
            "get": {
                "tags": ["Syllabus"],
                "summary": "List syllabus files available for import",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/syllabus/sources/{name}/import": {
            "post": {
                "tags": ["Syllabus"],
                "summary": "Create a plan from a syllabus file",
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid syllabus", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/study-records": {
            "get": {
                "tags": ["StudyRecords"],
                "summary": "List study records matching a filter",
                "parameters": [
                    {"name": "planId", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string", "enum": ["teoria", "revisao", "questoes", "leitura_lei", "jurisprudencia"]},
                    {"name": "startDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "endDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "minDuration", "in": "query", "type": "integer"},
                    {"name": "maxDuration", "in": "query", "type": "integer"},
                    {"name": "minPerformance", "in": "query", "type": "integer"},
                    {"name": "maxPerformance", "in": "query", "type": "integer"},
                    {"name": "subjects", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "topics", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["StudyRecords"],
                "summary": "Record a study session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudyRecordRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/study-records/history": {
            "get": {
                "tags": ["StudyRecords"],
                "summary": "Filtered study history grouped by day",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/study-records/toggle-completion": {
            "post": {
                "tags": ["StudyRecords"],
                "summary": "Flip the finished flag of a syllabus topic",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ToggleCompletionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing records updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Completion record created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/study-records/{id}": {
            "get": {
                "tags": ["StudyRecords"],
                "summary": "Get a study record",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["StudyRecords"],
                "summary": "Replace a study record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudyRecordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown record", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["StudyRecords"],
                "summary": "Delete a study record",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Completion and performance of a plan",
                "parameters": [{"name": "planId", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Reviews due, overdue and upcoming",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/backup": {
            "get": {
                "tags": ["Backup"],
                "summary": "Download every plan and study record",
                "produces": ["application/json"],
                "responses": {"200": {"description": "backup-ouroboros-completo-YYYY-MM-DD.json"}}
            }
        },
        "/backup/import": {
            "post": {
                "tags": ["Backup"],
                "summary": "Replace all data with a backup",
                "consumes": ["application/json", "multipart/form-data"],
                "parameters": [
                    {"name": "confirm", "in": "query", "required": true, "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Imported", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Confirmation required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid backup", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/backup/clear": {
            "post": {
                "tags": ["Backup"],
                "summary": "Irreversibly delete every plan, study record and setting",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClearAllRequest"}}
                ],
                "responses": {
                    "204": {"description": "Cleared"},
                    "412": {"description": "Confirmation required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Export the filtered history as CSV or PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reports/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a generated report via signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}, "401": {"description": "Invalid or expired token"}}
            }
        },
        "/timer": {
            "get": {
                "tags": ["Timer"],
                "summary": "Current timer state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/timer/{action}": {
            "post": {
                "tags": ["Timer"],
                "summary": "Start, pause or reset the timer",
                "parameters": [{"name": "action", "in": "path", "required": true, "type": "string", "enum": ["start", "pause", "reset"]}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "Topic": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "topic_text": {"type": "string"},
                "is_grouping_topic": {"type": "boolean"},
                "is_completed": {"type": "boolean"},
                "sub_topics": {"type": "array", "items": {"$ref": "#/definitions/Topic"}}
            }
        },
        "Subject": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "subject": {"type": "string"},
                "color": {"type": "string"},
                "topics": {"type": "array", "items": {"$ref": "#/definitions/Topic"}}
            }
        },
        "PlanRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "observations": {"type": "string"},
                "cargo": {"type": "string"},
                "edital": {"type": "string"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "bancaTopicWeights": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "StudyRecordRequest": {
            "type": "object",
            "required": ["date", "subject", "category"],
            "properties": {
                "planId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "subject": {"type": "string"},
                "topic": {"type": "string"},
                "studyTime": {"type": "integer", "description": "milliseconds"},
                "questions": {"type": "object", "properties": {"correct": {"type": "integer"}, "total": {"type": "integer"}}},
                "notes": {"type": "string"},
                "category": {"type": "string", "enum": ["teoria", "revisao", "questoes", "leitura_lei", "jurisprudencia"]},
                "reviewPeriods": {"type": "array", "items": {"type": "string"}},
                "teoriaFinalizada": {"type": "boolean"},
                "countInPlanning": {"type": "boolean"}
            }
        },
        "ToggleCompletionRequest": {
            "type": "object",
            "required": ["subject", "topic"],
            "properties": {
                "planId": {"type": "string"},
                "subject": {"type": "string"},
                "topic": {"type": "string"},
                "subjectId": {"type": "string"},
                "topicId": {"type": "string"}
            }
        },
        "ClearAllRequest": {
            "type": "object",
            "required": ["confirmation"],
            "properties": {"confirmation": {"type": "string"}}
        },
        "ReportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "title": {"type": "string"},
                "filter": {"type": "object"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
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
