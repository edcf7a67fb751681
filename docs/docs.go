// Package docs registers the OpenAPI description served under /swagger.
// Keep it in step with the godoc annotations on the gateway handlers.
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
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Liveness and store reachability",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/catalog": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List the menu by category",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/gateway.categoryResponse"}}}
                }
            }
        },
        "/api/v1/catalog/{category}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List one menu category",
                "parameters": [
                    {"type": "string", "description": "Category", "name": "category", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gateway.categoryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/terminals/{terminal}/cart": {
            "get": {
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Show a terminal's cart and totals",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.View"}}
                }
            }
        },
        "/api/v1/terminals/{terminal}/cart/items": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Add one unit of a menu item to the cart",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true},
                    {"description": "Menu item", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.addItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.View"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/terminals/{terminal}/cart/items/{name}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Remove a line from the cart",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true},
                    {"type": "string", "description": "Item name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.View"}}
                }
            },
            "patch": {
                "description": "A line whose quantity drops below one is removed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Change the quantity of a cart line",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true},
                    {"type": "string", "description": "Item name", "name": "name", "in": "path", "required": true},
                    {"description": "Quantity delta", "name": "change", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gateway.changeQuantityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.View"}}
                }
            }
        },
        "/api/v1/terminals/{terminal}/orders": {
            "post": {
                "description": "Records the order and opens the order summary. The summary closes by itself after the configured dwell.",
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Place an order from the cart",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/gateway.orderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/terminals/{terminal}/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Show the open order summary",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.Summary"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Close the order summary and reset the cart",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/checkout.View"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/terminals/{terminal}/summary/export": {
            "post": {
                "produces": ["application/json"],
                "tags": ["terminals"],
                "summary": "Export the order summary and finish the checkout",
                "parameters": [
                    {"type": "string", "description": "Terminal id", "name": "terminal", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gateway.exportResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/dashboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Sales figures for a period",
                "parameters": [
                    {"type": "string", "default": "today", "description": "today, week, month, year, custom or all", "name": "period", "in": "query"},
                    {"type": "string", "description": "Custom range start, YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "Custom range end, YYYY-MM-DD", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dashboard.View"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/dashboard/stream": {
            "get": {
                "description": "Server-sent events. A \"dashboard\" event carries the full view on connect and after every change to the order history.",
                "produces": ["text/event-stream"],
                "tags": ["dashboard"],
                "summary": "Live dashboard updates",
                "parameters": [
                    {"type": "string", "default": "today", "description": "today, week, month, year, custom or all", "name": "period", "in": "query"},
                    {"type": "string", "description": "Custom range start, YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "Custom range end, YYYY-MM-DD", "name": "to", "in": "query"}
                ],
                "responses": {}
            }
        },
        "/api/v1/dashboard/export": {
            "post": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Export the sales report for a period",
                "parameters": [
                    {"type": "string", "default": "today", "description": "today, week, month, year, custom or all", "name": "period", "in": "query"},
                    {"type": "string", "description": "Custom range start, YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "Custom range end, YYYY-MM-DD", "name": "to", "in": "query"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        },
        "/api/v1/orders": {
            "delete": {
                "description": "Destructive. Requires confirm=true.",
                "tags": ["dashboard"],
                "summary": "Delete every recorded order",
                "parameters": [
                    {"type": "boolean", "description": "Must be true", "name": "confirm", "in": "query", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gateway.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "gateway.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "gateway.addItemRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "gateway.changeQuantityRequest": {
            "type": "object",
            "required": ["delta"],
            "properties": {"delta": {"type": "integer"}}
        },
        "gateway.categoryResponse": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.MenuItem"}}
            }
        },
        "gateway.orderResponse": {
            "type": "object",
            "properties": {
                "order": {"$ref": "#/definitions/models.Order"},
                "view": {"$ref": "#/definitions/checkout.View"}
            }
        },
        "gateway.exportResponse": {
            "type": "object",
            "properties": {
                "summary": {"$ref": "#/definitions/checkout.Summary"},
                "view": {"$ref": "#/definitions/checkout.View"}
            }
        },
        "models.MenuItem": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "string"},
                "image": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "models.CartItem": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "price": {"type": "string"},
                "image": {"type": "string"},
                "quantity": {"type": "integer"}
            }
        },
        "models.Totals": {
            "type": "object",
            "properties": {
                "subtotal": {"type": "string"},
                "tax": {"type": "string"},
                "delivery": {"type": "string"},
                "total": {"type": "string"}
            }
        },
        "models.Order": {
            "type": "object",
            "properties": {
                "orderId": {"type": "integer"},
                "timestamp": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.CartItem"}},
                "subtotal": {"type": "string"},
                "tax": {"type": "string"},
                "delivery": {"type": "string"},
                "total": {"type": "string"}
            }
        },
        "checkout.Line": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "quantity": {"type": "integer"},
                "price": {"type": "string"},
                "lineTotal": {"type": "string"}
            }
        },
        "checkout.Summary": {
            "type": "object",
            "properties": {
                "orderId": {"type": "integer"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/checkout.Line"}},
                "totals": {"$ref": "#/definitions/models.Totals"}
            }
        },
        "checkout.View": {
            "type": "object",
            "properties": {
                "terminal": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.CartItem"}},
                "totals": {"$ref": "#/definitions/models.Totals"},
                "count": {"type": "integer"},
                "summary": {"$ref": "#/definitions/checkout.Summary"}
            }
        },
        "dashboard.Summary": {
            "type": "object",
            "properties": {
                "totalRevenue": {"type": "string"},
                "totalOrders": {"type": "integer"},
                "avgOrderValue": {"type": "string"},
                "totalTax": {"type": "string"},
                "totalDelivery": {"type": "string"},
                "totalItems": {"type": "integer"}
            }
        },
        "dashboard.Entry": {
            "type": "object",
            "properties": {
                "orderId": {"type": "integer"},
                "timestamp": {"type": "string"},
                "items": {"type": "string"},
                "itemCount": {"type": "integer"},
                "total": {"type": "string"}
            }
        },
        "dashboard.DateRange": {
            "type": "object",
            "properties": {
                "start": {"type": "string"},
                "end": {"type": "string"}
            }
        },
        "dashboard.View": {
            "type": "object",
            "properties": {
                "period": {"type": "string"},
                "range": {"$ref": "#/definitions/dashboard.DateRange"},
                "summary": {"$ref": "#/definitions/dashboard.Summary"},
                "orders": {"type": "array", "items": {"$ref": "#/definitions/dashboard.Entry"}}
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
	Title:            "Cloud Kitchen Storefront API",
	Description:      "Ordering terminals, checkout and the sales dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
