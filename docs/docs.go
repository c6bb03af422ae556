// Package docs registers the OpenAPI document served under /swagger.
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
        "/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Current default parameters",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "post": {
                "description": "Only keys that already exist in the defaults are applied; others are ignored.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Update default parameters",
                "parameters": [
                    {
                        "description": "Partial parameter overrides",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ConfigResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ConfigResponse"}}
                }
            }
        },
        "/config/defaults": {
            "get": {
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Current default parameters",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/generate": {
            "post": {
                "description": "Merge the given parameters over the current defaults and run a prediction.\nPass model_version to select a named variant, or model for a bare engine.\nimage may be an http(s) URL, a data URI or a server-local path.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["generate"],
                "summary": "Generate an image",
                "parameters": [
                    {
                        "description": "Generation parameters",
                        "name": "request",
                        "in": "body",
                        "schema": {"type": "object"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.GenerateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.GenerateResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.GenerateResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.GenerateResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Named model variants",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ModelsResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ConfigResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "params": {"type": "object", "additionalProperties": true},
                "success": {"type": "boolean"}
            }
        },
        "models.GenerateResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "output_url": {"type": "string", "example": "https://replicate.delivery/pbxt/out-0.png"},
                "prediction_id": {"type": "string", "example": "gm3qorzdhgbfurvjtvhg6dckhu"},
                "status": {"type": "string", "example": "starting"},
                "success": {"type": "boolean"}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"}
            }
        },
        "models.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"type": "string"}, "example": ["klingon", "subconscious"]}
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
	Title:            "aMiRROr generation proxy",
	Description:      "Maps client parameters onto Replicate model inputs and relays the prediction result.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
