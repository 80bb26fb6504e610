// Package openapi describes the HTTP API as an OpenAPI 3.1 document.
package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Spec builds the OpenAPI document for the chat API. The surface is fixed,
// so the document is assembled in code rather than generated.
func Spec() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "TableTalk API",
			Description: "Chat with your database in plain language. Connect, ask questions, get answers.",
			Version:     "1.0.0",
		},
		Servers: openapi3.Servers{
			{URL: "/"},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": objectSchema(openapi3.Schemas{
					"code":    typedSchema("integer"),
					"message": typedSchema("string"),
					"context": typedSchema("object"),
				}),
			},
		},
	}
	doc.Components.Schemas["APIResponse"] = objectSchema(openapi3.Schemas{
		"success": typedSchema("boolean"),
		"message": typedSchema("string"),
		"data":    typedSchema("object"),
	})
	doc.Components.Schemas["ConnectRequest"] = objectSchema(openapi3.Schemas{
		"driver":    typedSchema("string"),
		"host":      typedSchema("string"),
		"port":      typedSchema("integer"),
		"user":      typedSchema("string"),
		"password":  typedSchema("string"),
		"database":  typedSchema("string"),
		"file_path": typedSchema("string"),
		"account":   typedSchema("string"),
		"service":   typedSchema("string"),
		"schema":    typedSchema("string"),
	})
	doc.Components.Schemas["ChatRequest"] = objectSchema(openapi3.Schemas{
		"message": typedSchema("string"),
	})
	doc.Components.Schemas["DirectiveRequest"] = objectSchema(openapi3.Schemas{
		"directive": typedSchema("string"),
	})

	doc.Paths = openapi3.NewPaths()

	doc.Paths.Set("/api/v1/connect", &openapi3.PathItem{
		Post: operation("Connect to a database",
			"Opens a connection, starts a conversation, and returns its bearer token.",
			requestBody("ConnectRequest"), false),
	})
	doc.Paths.Set("/api/v1/disconnect", &openapi3.PathItem{
		Post: operation("Disconnect", "Closes the connection and discards the conversation.", nil, true),
	})
	doc.Paths.Set("/api/v1/status", &openapi3.PathItem{
		Get: operation("Connection status", "Reports the connection's health and identity.", nil, true),
	})
	doc.Paths.Set("/api/v1/schema", &openapi3.PathItem{
		Get: operation("Database structure", "Returns the introspected tables and relationships.", nil, true),
	})
	doc.Paths.Set("/api/v1/chat", &openapi3.PathItem{
		Post: operation("Ask a question",
			"Runs one message through the question-to-answer pipeline and returns the reply.",
			requestBody("ChatRequest"), true),
	})
	doc.Paths.Set("/api/v1/chat/history", &openapi3.PathItem{
		Get:    operation("Conversation history", "Returns all recorded turns.", nil, true),
		Delete: operation("Clear history", "Drops all recorded turns, keeping the connection.", nil, true),
	})
	doc.Paths.Set("/api/v1/directive", &openapi3.PathItem{
		Get:    operation("Get directive", "Returns the standing response instruction.", nil, true),
		Post:   operation("Set directive", "Stores a standing instruction applied to every answer.", requestBody("DirectiveRequest"), true),
		Delete: operation("Clear directive", "Removes the standing instruction.", nil, true),
	})
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: operation("Liveness probe", "Returns 200 while the process is running.", nil, false),
	})

	return doc
}

func operation(summary, description string, body *openapi3.RequestBodyRef, secured bool) *openapi3.Operation {
	op := &openapi3.Operation{
		Summary:     summary,
		Description: description,
		RequestBody: body,
		Responses:   standardResponses(),
	}
	if secured {
		op.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	}
	return op
}

func requestBody(schemaName string) *openapi3.RequestBodyRef {
	ref := fmt.Sprintf("#/components/schemas/%s", schemaName)
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content: openapi3.NewContentWithJSONSchemaRef(
				openapi3.NewSchemaRef(ref, nil),
			),
		},
	}
}

func standardResponses() *openapi3.Responses {
	responses := openapi3.NewResponses()
	responses.Set("200", &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Success").
			WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/APIResponse", nil)),
	})
	responses.Set("default", &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription("Error").
			WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)),
	})
	return responses
}

func objectSchema(props openapi3.Schemas) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
		},
	}
}

func typedSchema(t string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{t}}}
}
