package handler

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPISpec []byte

// RequestValidator checks request bodies against the embedded OpenAPI document
type RequestValidator struct {
	doc *openapi3.T
}

// NewRequestValidator loads and validates the embedded OpenAPI document
func NewRequestValidator() (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return &RequestValidator{doc: doc}, nil
}

// ValidateBody validates the request body of the matched route. Routes that
// are not described in the document are accepted as is. The body stays
// readable for the handler afterwards.
func (v *RequestValidator) ValidateBody(c *gin.Context) error {
	if v == nil {
		return nil
	}

	pathItem := v.doc.Paths.Find(c.FullPath())
	if pathItem == nil {
		return nil
	}
	operation := pathItem.GetOperation(c.Request.Method)
	if operation == nil || operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}

	if c.GetHeader("Content-Type") == "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}

	return openapi3filter.ValidateRequestBody(c.Request.Context(), &openapi3filter.RequestValidationInput{
		Request: c.Request,
	}, operation.RequestBody.Value)
}

// ServeSpec returns the OpenAPI document
func ServeSpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", openAPISpec)
}
