// Package docs holds the Swagger spec served at /swagger. Regenerate it from the handler
// annotations with "go generate ./cmd/escrow_backend".
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
        "/escrows": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Newest deposit first, paginated with nextToken",
                "produces": ["application/json"],
                "tags": ["escrows"],
                "summary": "List escrow records",
                "parameters": [
                    {"type": "string", "description": "HELD or RELEASED", "name": "status", "in": "query"},
                    {"type": "string", "description": "Vendor ID", "name": "vendorID", "in": "query"},
                    {"type": "integer", "description": "Page size (1-100)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Token from the previous page", "name": "nextToken", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListEscrowsResponse"}},
                    "400": {"description": "Invalid query", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to list escrows", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Records the commission split for an order and holds the funds until release",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["escrows"],
                "summary": "Hold a captured payment in escrow",
                "parameters": [
                    {"description": "Deposit details", "name": "escrow", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.DepositRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.EscrowResponse"}},
                    "400": {"description": "Invalid amount, rate or request format", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Order or payment reference already in escrow", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/escrows/balance": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["escrows"],
                "summary": "Aggregate held escrow",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EscrowBalance"}}
                }
            }
        },
        "/escrows/sweep": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Releases every held escrow older than thresholdHours (default: configured auto-release age)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["escrows"],
                "summary": "Run an auto-release pass now",
                "parameters": [
                    {"description": "Sweep options", "name": "sweep", "in": "body", "schema": {"$ref": "#/definitions/dto.SweepRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SweepResult"}}
                }
            }
        },
        "/escrows/{orderID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["escrows"],
                "summary": "Get an escrow record",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "orderID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.EscrowResponse"}},
                    "404": {"description": "Escrow not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/escrows/{orderID}/release": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Credits the vendor's seller amount exactly once and marks the order paid out",
                "produces": ["application/json"],
                "tags": ["escrows"],
                "summary": "Release an escrow to the vendor",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "orderID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ReleaseResult"}},
                    "404": {"description": "Escrow not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Already released or not verified", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/vendors/{vendorID}/statement": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["vendors"],
                "summary": "Vendor escrow statement",
                "parameters": [
                    {"type": "string", "description": "Vendor ID", "name": "vendorID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VendorStatement"}}
                }
            }
        },
        "/checkout/initialize": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Generates a payment reference and returns the provider authorization URL",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Open a hosted checkout",
                "parameters": [
                    {"description": "Checkout details", "name": "checkout", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.InitializeCheckoutRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.CaptureSession"}},
                    "502": {"description": "Payment provider unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/payments/{reference}/verify": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Confirms the escrowed payment succeeded for the full amount. Never changes escrow status.",
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Verify a payment with the provider",
                "parameters": [
                    {"type": "string", "description": "Payment reference", "name": "reference", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VerificationResult"}},
                    "404": {"description": "No escrow for this reference", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Provider did not confirm the payment", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "504": {"description": "Provider timed out", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.CaptureSession": {
            "type": "object",
            "properties": {
                "accessCode": {"type": "string"},
                "authorizationURL": {"type": "string"},
                "reference": {"type": "string"}
            }
        },
        "domain.EscrowBalance": {
            "type": "object",
            "properties": {
                "availableForRelease": {"type": "integer"},
                "heldCount": {"type": "integer"},
                "totalCommission": {"type": "integer"},
                "totalHeld": {"type": "integer"}
            }
        },
        "domain.ReleaseResult": {
            "type": "object",
            "properties": {
                "commissionAmount": {"type": "integer"},
                "orderID": {"type": "string"},
                "releasedAt": {"type": "string"},
                "sellerAmount": {"type": "integer"},
                "vendorID": {"type": "string"}
            }
        },
        "domain.SweepResult": {
            "type": "object",
            "properties": {
                "failed": {"type": "integer"},
                "released": {"type": "integer"},
                "skipped": {"type": "integer"}
            }
        },
        "domain.VendorStatement": {
            "type": "object",
            "properties": {
                "heldAmount": {"type": "integer"},
                "heldCount": {"type": "integer"},
                "netEarnings": {"type": "integer"},
                "platformFees": {"type": "integer"},
                "releasedCount": {"type": "integer"},
                "totalRevenue": {"type": "integer"},
                "vendorID": {"type": "string"}
            }
        },
        "domain.VerificationResult": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "message": {"type": "string"},
                "reference": {"type": "string"},
                "status": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "dto.DepositRequest": {
            "type": "object",
            "required": ["orderID", "paymentReference", "vendorID"],
            "properties": {
                "commissionRate": {"type": "number"},
                "grossAmount": {"type": "integer"},
                "orderID": {"type": "string", "maxLength": 128},
                "paymentReference": {"type": "string", "maxLength": 128},
                "vendorID": {"type": "string", "maxLength": 128}
            }
        },
        "dto.EscrowResponse": {
            "type": "object",
            "properties": {
                "commissionAmount": {"type": "integer"},
                "commissionRate": {"type": "string"},
                "createdBy": {"type": "string"},
                "currencyCode": {"type": "string"},
                "depositedAt": {"type": "string"},
                "grossAmount": {"type": "integer"},
                "orderID": {"type": "string"},
                "paymentReference": {"type": "string"},
                "released": {"type": "boolean"},
                "releasedAt": {"type": "string"},
                "releasedBy": {"type": "string"},
                "sellerAmount": {"type": "integer"},
                "status": {"type": "string", "enum": ["HELD", "RELEASED"]},
                "vendorID": {"type": "string"},
                "verified": {"type": "boolean"},
                "verifiedAt": {"type": "string"}
            }
        },
        "dto.InitializeCheckoutRequest": {
            "type": "object",
            "required": ["amount", "email", "orderID", "vendorID"],
            "properties": {
                "amount": {"type": "integer"},
                "buyerID": {"type": "string", "maxLength": 128},
                "email": {"type": "string"},
                "orderID": {"type": "string", "maxLength": 128},
                "vendorID": {"type": "string", "maxLength": 128}
            }
        },
        "dto.ListEscrowsResponse": {
            "type": "object",
            "properties": {
                "escrows": {"type": "array", "items": {"$ref": "#/definitions/dto.EscrowResponse"}},
                "nextToken": {"type": "string"}
            }
        },
        "dto.SweepRequest": {
            "type": "object",
            "properties": {
                "thresholdHours": {"type": "number", "minimum": 0}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Campus Escrow API",
	Description:      "Escrow ledger for campus marketplace orders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
