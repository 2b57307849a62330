// Package docs registra la especificación OpenAPI generada por swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "tags": ["users"],
                "summary": "Registrar paciente",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["users"],
                "summary": "Login",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/diabetes-info": {
            "post": {
                "tags": ["profile"],
                "summary": "Cargar perfil clínico (modo full-set)",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "tags": ["profile"],
                "summary": "Actualizar perfil clínico (modo merge)",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/diabetes-info/{userID}": {
            "get": {
                "tags": ["profile"],
                "summary": "Leer perfil clínico",
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/conditions": {
            "post": {
                "tags": ["conditions"],
                "summary": "Registrar condiciones del paciente",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/conditions/{userID}": {
            "get": {
                "tags": ["conditions"],
                "summary": "Listar todo lo registrado de un paciente",
                "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/conditions/{userID}/{datatype}": {
            "put": {
                "tags": ["conditions"],
                "summary": "Actualizar una condición existente",
                "parameters": [
                    {"type": "string", "name": "userID", "in": "path", "required": true},
                    {"type": "string", "name": "datatype", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/graphs": {
            "get": {
                "tags": ["graphs"],
                "summary": "Serie para graficar",
                "parameters": [
                    {"type": "string", "name": "type", "in": "query", "required": true},
                    {"type": "string", "name": "start_datetime", "in": "query", "required": true},
                    {"type": "string", "name": "end_datetime", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}
            }
        },
        "/questionnaire": {
            "post": {
                "tags": ["questionnaire"],
                "summary": "Enviar cuestionario",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/alert-doctor": {
            "post": {
                "tags": ["alerts"],
                "summary": "Alertar al médico",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
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
	Title:            "DiaLog backend API",
	Description:      "Backend de seguimiento de diabetes: mediciones por paciente, perfil clínico y alertas al médico tratante.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
