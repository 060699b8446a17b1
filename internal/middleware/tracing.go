package middleware

import (
	"errors"

	"guildkeeper/internal/models"
	"guildkeeper/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request. The span is named after the
// matched route template, so /api/posts/:id is one span name however many posts exist.
// It must be registered after the requestid middleware.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := observability.Tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.SetUserContext(ctx)

		err := c.Next()

		// The route is known only once the router has matched.
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(attribute.String("http.route", route))

		status := c.Response().StatusCode()
		code, _ := c.Locals(models.LocalErrorCode).(string)
		if err != nil {
			// Returned errors reach the error handler only after this middleware unwinds.
			var appErr *models.AppError
			var fiberErr *fiber.Error
			switch {
			case errors.As(err, &appErr):
				code, status = appErr.Code, appErr.Status()
			case errors.As(err, &fiberErr):
				status = fiberErr.Code
			default:
				status = fiber.StatusInternalServerError
			}
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if code != "" {
			span.SetAttributes(attribute.String("app.error_code", code))
		}
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}

		if actor := ActorFrom(c); !actor.Anonymous() {
			span.SetAttributes(
				attribute.String("enduser.id", actor.ID),
				attribute.String("enduser.role", string(actor.Role)),
			)
		}
		return err
	}
}
