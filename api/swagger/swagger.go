package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CampusPlan Timetable API",
        "description": "Course scheduling service. Solves room and timeslot assignments with an ILP optimizer, preferring morning slots and spread-out instructor schedules.",
        "version": "1.0.0"
    },
    "basePath": "/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduling", "description": "Solve, queue and export course schedules"}
    ],
    "paths": {
        "/schedule/solve": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Solve a course scheduling problem",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulingInput"}}
                ],
                "responses": {
                    "200": {"description": "Solved schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No feasible schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/solve/async": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Queue a scheduling problem for background solving",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulingInput"}}
                ],
                "responses": {
                    "202": {"description": "Job queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/jobs/{id}": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Inspect a queued solve job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Solve a scheduling problem and download the schedule",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulingInput"}}
                ],
                "responses": {
                    "200": {"description": "Schedule attachment"},
                    "400": {"description": "Malformed payload or unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No feasible schedule", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Room": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "capacity": {"type": "integer"}
            }
        },
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "instructorId": {"type": "integer"},
                "durationSlots": {"type": "integer", "minimum": 1},
                "requiredCapacity": {"type": "integer"}
            }
        },
        "Instructor": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "unavailableSlots": {
                    "type": "array",
                    "items": {"type": "integer"}
                }
            }
        },
        "SchedulingInput": {
            "type": "object",
            "properties": {
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/Course"}},
                "instructors": {"type": "array", "items": {"$ref": "#/definitions/Instructor"}},
                "totalTimeslots": {"type": "integer"}
            }
        },
        "Assignment": {
            "type": "object",
            "properties": {
                "courseId": {"type": "integer"},
                "roomId": {"type": "integer"},
                "startSlot": {"type": "integer"}
            }
        },
        "UnmetSoftConstraint": {
            "type": "object",
            "properties": {
                "constraintType": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "SchedulingOutput": {
            "type": "object",
            "properties": {
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/Assignment"}},
                "score": {"type": "integer"},
                "unmetSoftConstraints": {"type": "array", "items": {"$ref": "#/definitions/UnmetSoftConstraint"}}
            }
        },
        "SolveJobResponse": {
            "type": "object",
            "properties": {
                "jobId": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]}
            }
        },
        "SolveJobStatusResponse": {
            "type": "object",
            "properties": {
                "jobId": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "submittedAt": {"type": "string", "format": "date-time"},
                "finishedAt": {"type": "string", "format": "date-time"},
                "result": {"$ref": "#/definitions/SchedulingOutput"},
                "error": {"type": "string"}
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
