// Package docs registra la especificación OpenAPI servida en /docs.
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
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/pets": {
            "get": {
                "tags": ["pets"],
                "summary": "Listar mascotas del usuario",
                "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}
            },
            "post": {
                "tags": ["pets"],
                "summary": "Crear mascota",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/pets.createPetRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid input"}}
            }
        },
        "/pets/{petID}": {
            "get": {
                "tags": ["pets"],
                "summary": "Obtener mascota",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}
            }
        },
        "/pets/{petID}/caretakers": {
            "get": {
                "tags": ["ownership"],
                "summary": "Listar owners y caretakers",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["ownership"],
                "summary": "Agregar caretaker",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "forbidden"}}
            }
        },
        "/pets/{petID}/insulin": {
            "get": {
                "tags": ["insulin"],
                "summary": "Listar aplicaciones de insulina",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "name": "user_id", "in": "query"},
                    {"type": "number", "name": "min_units", "in": "query"},
                    {"type": "number", "name": "max_units", "in": "query"},
                    {"type": "integer", "name": "min_glucose", "in": "query"},
                    {"type": "integer", "name": "max_glucose", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["insulin"],
                "summary": "Registrar aplicación de insulina",
                "parameters": [
                    {"type": "string", "name": "petID", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/insulin.registerRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid input"}, "403": {"description": "forbidden"}}
            }
        },
        "/pets/{petID}/insulin/export": {
            "get": {
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["insulin"],
                "summary": "Exportar historial de insulina (XLSX)",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}
            }
        },
        "/pets/{petID}/insulin/filters": {
            "get": {
                "tags": ["insulin"],
                "summary": "Rangos de filtro de insulina",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/insulin.filterBoundsResponse"}}, "404": {"description": "sin aplicaciones"}}
            }
        },
        "/pets/{petID}/insulin/{applicationID}": {
            "get": {"tags": ["insulin"], "summary": "Obtener aplicación", "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["insulin"], "summary": "Corregir aplicación", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["insulin"], "summary": "Eliminar aplicación", "responses": {"204": {"description": "No Content"}}}
        },
        "/pets/{petID}/dashboard": {
            "get": {
                "tags": ["insulin"],
                "summary": "Última dosis y próxima aplicación",
                "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/push-tokens": {
            "post": {"tags": ["devices"], "summary": "Registrar token push", "responses": {"200": {"description": "OK"}, "201": {"description": "Created"}}},
            "delete": {"tags": ["devices"], "summary": "Eliminar token push", "responses": {"204": {"description": "No Content"}}}
        },
        "/internal/reminders/run": {
            "post": {
                "tags": ["reminders"],
                "summary": "Ejecutar recordatorios de insulina",
                "parameters": [{"type": "string", "name": "X-Trigger-Token", "in": "header"}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}
            }
        }
    },
    "definitions": {
        "pets.createPetRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "species": {"type": "string", "enum": ["DOG", "CAT"]},
                "birth_date": {"type": "string"},
                "insulin_frequency": {"type": "integer"}
            }
        },
        "insulin.filterBoundsResponse": {
            "type": "object",
            "properties": {
                "min_date": {"type": "string"},
                "max_date": {"type": "string"},
                "min_units": {"type": "number"},
                "max_units": {"type": "number"},
                "min_glucose": {"type": "integer"},
                "max_glucose": {"type": "integer"}
            }
        },
        "insulin.registerRequest": {
            "type": "object",
            "properties": {
                "responsible_id": {"type": "string"},
                "application_time": {"type": "string"},
                "insulin_units": {"type": "number"},
                "glucose_level": {"type": "integer"},
                "observations": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo contiene la metadata exportada de la API.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Diapets API",
	Description:      "Registro de insulina y recordatorios de dosis para mascotas diabéticas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
