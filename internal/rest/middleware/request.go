package middleware

import (
	"context"

	"github.com/brewstack/brewstack/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// TenantMiddleware resolves the tenant for the request. Tenant resolution
// proper (subdomain lookup, session auth) lives in the wider application;
// this core trusts the header set by the fronting layer.
func TenantMiddleware(c *gin.Context) {
	tenantID := c.GetHeader(types.HeaderTenantID)
	if tenantID != "" {
		ctx := types.SetTenantID(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
	}

	c.Next()
}
