// Package local serves the Lambda handlers over plain HTTP for development.
// Requests are converted to API Gateway proxy events and run through the
// same preprocessor the deployed functions use.
package local

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"minicourse-backend/interfaces/lambda/handlers"
	"minicourse-backend/interfaces/lambda/pipeline"
)

// Routes are the handlers to expose. Nil handlers are left unrouted.
type Routes struct {
	Minicourse *handlers.MinicourseHandler
	Category   *handlers.CategoryHandler
	Video      *handlers.VideoHandler
	Question   *handlers.QuestionHandler
}

// Router creates and configures the HTTP router
type Router struct {
	pre            *pipeline.Preprocessor
	logger         *zap.Logger
	allowedOrigins []string

	// One invocation at a time, like a single Lambda environment. Injected
	// usernames live on shared repositories.
	mu sync.Mutex
}

// NewRouter creates a new router instance
func NewRouter(pre *pipeline.Preprocessor, logger *zap.Logger, allowedOrigins []string) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Router{pre: pre, logger: logger, allowedOrigins: allowedOrigins}
}

// Setup configures all routes and middleware. injections are applied to
// every request.
func (rt *Router) Setup(routes Routes, injections ...pipeline.Injection) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)

	wrap := func(h pipeline.Handler) http.HandlerFunc {
		return rt.serve(rt.pre.Wrap(h, injections...))
	}

	router.Route("/minicourse", func(r chi.Router) {
		if h := routes.Minicourse; h != nil {
			r.Post("/", wrap(h.Create))
			r.Post("/get", wrap(h.Get()))
			r.Put("/", wrap(h.Update))
			r.Delete("/", wrap(h.Delete))
		}
		if h := routes.Category; h != nil {
			r.Post("/category", wrap(h.Create))
			r.Post("/category/get", wrap(h.Get()))
			r.Put("/category", wrap(h.Update))
			r.Delete("/category", wrap(h.Delete))
		}
		if h := routes.Video; h != nil {
			r.Post("/video", wrap(h.Create))
			r.Post("/video/get", wrap(h.Get()))
			r.Delete("/video", wrap(h.Delete))
		}
	})
	if h := routes.Question; h != nil {
		router.Post("/question", wrap(h.Send))
	}

	return router
}

func (rt *Router) serve(handler pipeline.LambdaHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := ProxyRequest(r)
		if err != nil {
			rt.logger.Error("Could not read request", zap.Error(err))
			http.Error(w, "could not read request", http.StatusBadRequest)
			return
		}

		rt.mu.Lock()
		resp, err := handler(r.Context(), event)
		rt.mu.Unlock()
		if err != nil {
			rt.logger.Error("Handler returned an error", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}

		if err := WriteProxyResponse(w, resp); err != nil {
			rt.logger.Error("Could not write response", zap.Error(err))
		}
	}
}

// ProxyRequest converts r to the event API Gateway would deliver.
func ProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	multi := make(map[string][]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ",")
		multi[name] = values
	}

	query := make(map[string]string, len(r.URL.Query()))
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	return events.APIGatewayProxyRequest{
		Resource:                        r.URL.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multi,
		QueryStringParameters:           query,
		MultiValueQueryStringParameters: r.URL.Query(),
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  chimiddleware.GetReqID(r.Context()),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
			Identity:   events.APIGatewayRequestIdentity{SourceIP: r.RemoteAddr},
		},
	}, nil
}

// WriteProxyResponse copies a proxy response onto w.
func WriteProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) error {
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	for name, values := range resp.MultiValueHeaders {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return err
		}
		body = decoded
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
