package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the media service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>mediashelf - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Every response uses the {error, message, data} envelope; 400 responses add
// a per-field "fields" map.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "mediashelf", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "MediaFields": {"type":"object","required":["title","uri"],"properties":{"title":{"type":"string"},"uri":{"type":"string"},"tags":{"type":"array","items":{"type":"string"}},"description":{"type":"string"},"isPublic":{"type":"boolean"}}},
      "Envelope": {"type":"object","properties":{"error":{"type":"boolean"},"message":{"type":"string"},"data":{},"fields":{"type":"object","additionalProperties":{"type":"object","properties":{"valid":{"type":"boolean"},"hint":{"type":"string"}}}}}}
    }
  },
  "paths": {
    "/media": {
      "get": { "summary": "List media, newest first. Anonymous callers see public media only", "responses": { "200": { "description": "media list" } } },
      "post": { "summary": "Create media", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/MediaFields"}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "invalid fields" }, "401": { "description": "authentication required" } } }
    },
    "/media/{id}": {
      "get": { "summary": "Get media", "responses": { "200": { "description": "media" }, "401": { "description": "private or missing, anonymous caller" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update some fields; the previous state is recorded as a revision", "responses": { "200": { "description": "updated" }, "400": { "description": "invalid fields" }, "403": { "description": "not the author" }, "404": { "description": "not found" }, "409": { "description": "concurrent update" } } },
      "put": { "summary": "Alias of PATCH; only the members present are changed", "responses": { "200": { "description": "updated" }, "409": { "description": "concurrent update" } } },
      "delete": { "summary": "Delete media and its revisions", "responses": { "200": { "description": "deleted" }, "403": { "description": "not the author" }, "404": { "description": "not found" } } }
    },
    "/media/{id}/revisions": {
      "get": { "summary": "Revision history, oldest first unless order=desc", "parameters": [{"name":"order","in":"query","schema":{"type":"string","enum":["asc","desc"]}}], "responses": { "200": { "description": "revisions" }, "404": { "description": "media not found" } } }
    },
    "/revision/{id}": {
      "get": { "summary": "Get one revision", "responses": { "200": { "description": "revision" }, "404": { "description": "not found" } } }
    },
    "/media/upload": {
      "post": { "summary": "Upload a file to object storage and return its stable /files uri", "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"file":{"type":"string","format":"binary"}}}}}}, "responses": { "201": { "description": "uploaded" }, "413": { "description": "file too large" } } }
    },
    "/files/{key}": {
      "get": { "summary": "Redirect to a short-lived signed download URL for an uploaded object", "responses": { "302": { "description": "redirect" }, "404": { "description": "not an uploaded object" } } }
    },
    "/user": {
      "post": { "summary": "Create an account", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"userName":{"type":"string"},"firstName":{"type":"string"},"lastName":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "201": { "description": "created" }, "400": { "description": "invalid fields or user name taken" } } }
    },
    "/user/auth": {
      "post": { "summary": "Log in; sets the session cookie and returns an access token when enabled", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"userName":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged in" }, "401": { "description": "invalid credentials" } } }
    },
    "/user/logout": {
      "post": { "summary": "End the session and revoke the bearer token", "responses": { "200": { "description": "logged out" } } }
    },
    "/user/me": {
      "get": { "summary": "Current identity", "responses": { "200": { "description": "identity" }, "401": { "description": "authentication required" } } }
    },
    "/chat/stream": {
      "get": { "summary": "Join the chat room as a server-sent event stream", "responses": { "200": { "description": "event stream" }, "401": { "description": "authentication required" } } }
    },
    "/chat/messages": {
      "post": { "summary": "Post a chat message", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"text":{"type":"string"}}}}}}, "responses": { "202": { "description": "accepted" }, "400": { "description": "empty message" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
