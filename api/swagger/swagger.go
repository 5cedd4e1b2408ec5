package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Psychodraw Wizard API",
        "description": "Three-step wizard: drawing uploads, child questionnaire, psychological report.",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Wizard", "description": "Upload, questionnaire and report steps"},
        {"name": "Previews", "description": "Signed preview images of selected drawings"}
    ],
    "paths": {
        "/wizard": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Start a wizard session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SessionEnvelope"}}
                }
            },
            "get": {
                "tags": ["Wizard"],
                "summary": "Current wizard state",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SnapshotEnvelope"}},
                    "401": {"description": "No session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Wizard"],
                "summary": "End the wizard session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Ended"}
                }
            }
        },
        "/wizard/files/{slot}": {
            "put": {
                "tags": ["Wizard"],
                "summary": "Select a drawing for an upload slot",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "slot", "in": "path", "required": true, "type": "string", "enum": ["house-tree-person", "nonexistent-animal", "self-portrait"]},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SnapshotEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Wizard"],
                "summary": "Clear an upload slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "slot", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SnapshotEnvelope"}}
                }
            }
        },
        "/wizard/form": {
            "patch": {
                "tags": ["Wizard"],
                "summary": "Edit questionnaire answers",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SnapshotEnvelope"}},
                    "400": {"description": "Unknown field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wizard/advance": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Move to the next step",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/AdvanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SnapshotEnvelope"}},
                    "409": {"description": "Not allowed from this step", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Incomplete uploads or form; meta.field names the first missing answer", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wizard/retreat": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Move to the previous step",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SnapshotEnvelope"}},
                    "409": {"description": "Not allowed from this step", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wizard/questionnaire": {
            "get": {
                "tags": ["Wizard"],
                "summary": "Questionnaire field catalogue",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wizard/report": {
            "get": {
                "tags": ["Wizard"],
                "summary": "Rendered report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not on the report step", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wizard/report/download": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Download the report as PDF",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "501": {"description": "Not implemented", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wizard/report/share": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Share the report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "501": {"description": "Not implemented", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "FileMeta": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "contentType": {"type": "string"},
                "size": {"type": "integer"},
                "isImage": {"type": "boolean"},
                "selectedAt": {"type": "string", "format": "date-time"}
            }
        },
        "SlotView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "file": {"$ref": "#/definitions/FileMeta"},
                "previewUrl": {"type": "string"}
            }
        },
        "ChildFormData": {
            "type": "object",
            "additionalProperties": {"type": "string"}
        },
        "WizardSnapshot": {
            "type": "object",
            "properties": {
                "step": {"type": "integer"},
                "stepName": {"type": "string"},
                "totalSteps": {"type": "integer"},
                "progress": {"type": "number"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/SlotView"}},
                "draft": {"$ref": "#/definitions/ChildFormData"},
                "form": {"$ref": "#/definitions/ChildFormData"},
                "allFilesUploaded": {"type": "boolean"},
                "isFormComplete": {"type": "boolean"},
                "firstMissingField": {"type": "string"},
                "livePreviews": {"type": "integer"}
            }
        },
        "SessionResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expiresAt": {"type": "string", "format": "date-time"},
                "wizard": {"$ref": "#/definitions/WizardSnapshot"}
            }
        },
        "AdvanceRequest": {
            "type": "object",
            "properties": {
                "form": {"$ref": "#/definitions/ChildFormData"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "field": {"type": "string"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "SnapshotEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/WizardSnapshot"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "SessionEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/SessionResponse"},
                "error": {"$ref": "#/definitions/APIError"}
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
