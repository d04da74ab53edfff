package middleware

import (
	"errors"
	"net/http"

	"yatube/internal/models"
	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Locals set by the session middleware and read here for span attributes.
const (
	LocalsUserID = "userID"
	LocalsUser   = "user"
)

const unmatchedRoute = "unmatched"

// routeParams maps path parameters of the site's routes to span attributes.
var routeParams = map[string]string{
	"id":       "post.id",
	"slug":     "group.slug",
	"username": "profile.username",
}

// TracingMiddleware opens a server span per request. Once routing is done the
// span is renamed after the matched route template, e.g. "GET /posts/:id/".
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Continue a trace started upstream
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		// Start span; the name is provisional until a route matches
		ctx, span := observability.Tracer.Start(ctx, "HTTP "+c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		// Expose the trace ID to the logger and the client
		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if rid, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		c.SetUserContext(ctx)

		// Proceed to next handler
		err := c.Next()

		// Name the span after the route and tag what the page was about
		route := matchedRoute(c)
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		if route != unmatchedRoute {
			span.SetAttributes(routeAttributes(c)...)
		}
		span.SetAttributes(userAttributes(c)...)

		// Record result
		status := c.Response().StatusCode()
		if err != nil {
			status = errorStatus(err)
			span.RecordError(err)
		} else if handled, ok := c.Locals(localsHandledError).(error); ok {
			span.RecordError(handled)
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		return err
	}
}

// matchedRoute returns the template of the route that handled the request.
// The last route fiber ran is a middleware (USE) route when nothing matched.
func matchedRoute(c *fiber.Ctx) string {
	r := c.Route()
	if r == nil || r.Method == "USE" {
		return unmatchedRoute
	}
	return r.Path
}

func routeAttributes(c *fiber.Ctx) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, name := range c.Route().Params {
		if key, ok := routeParams[name]; ok {
			attrs = append(attrs, attribute.String(key, c.Params(name)))
		}
	}
	return attrs
}

func userAttributes(c *fiber.Ctx) []attribute.KeyValue {
	user, ok := c.Locals(LocalsUser).(*models.User)
	if !ok || user == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Int64("user.id", int64(user.ID)),
		attribute.String("user.name", user.Username),
	}
}

// errorStatus is the status the app error handler answers err with.
func errorStatus(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case models.HasCode(err, models.CodeNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
