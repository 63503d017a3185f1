// Package handler adapts API Gateway proxy events to the HTTP router.
package handler

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

type Handler struct {
	proxy *httpadapter.HandlerAdapter
}

func NewHandler(h http.Handler) (*Handler, error) {
	if h == nil {
		return nil, errors.New("handler: http handler must not be nil")
	}
	return &Handler{proxy: httpadapter.New(withSourceIP(h))}, nil
}

// Handle serves one proxy event. Routing failures surface as HTTP responses;
// only an event that cannot be converted to a request is returned as an error.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.proxy.ProxyWithContext(ctx, event)
}

// withSourceIP sets RemoteAddr to the caller address reported by API Gateway
// so the router sees the client IP in host:port form.
func withSourceIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gw, ok := core.GetAPIGatewayContextFromContext(r.Context()); ok && gw.Identity.SourceIP != "" {
			r.RemoteAddr = net.JoinHostPort(gw.Identity.SourceIP, "0")
		}
		next.ServeHTTP(w, r)
	})
}
