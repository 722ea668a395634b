package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"minicourse-backend/pkg/auth"
	"minicourse-backend/pkg/common"
	"minicourse-backend/pkg/observability"
)

// RepoAction is the injection group whose collaborators receive the username.
const RepoAction = "repo"

var errUnauthenticated = errors.New("request rejected by auth policy")

// Handler is a business handler behind the preprocessor.
type Handler func(ctx context.Context, event *Event) (events.APIGatewayProxyResponse, error)

// LambdaHandler is what lambda.Start receives.
type LambdaHandler func(ctx context.Context, raw events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Collaborator is anything that wants to know who is acting, typically a repository.
type Collaborator interface {
	SetUsername(username string)
}

// InjectFunc applies the derived identity to one injection group.
type InjectFunc func(username string, claims auth.Claims, collaborators []Collaborator)

// Injection names an action and the collaborators it runs against.
type Injection struct {
	Action        string
	Collaborators []Collaborator
}

// IncludeRepos registers collaborators for the username injection.
func IncludeRepos(collaborators ...Collaborator) Injection {
	return Injection{Action: RepoAction, Collaborators: collaborators}
}

// AuthPolicy decides what happens when identity cannot be derived.
// The zero value is permissive: missing or malformed tokens mean anonymous.
type AuthPolicy struct {
	RequireToken    bool
	RejectMalformed bool
}

// Preprocessor runs parse, derive identity, enrich, inject and delegate
// for every invocation, in that order.
type Preprocessor struct {
	reader  auth.TrustedClaimsReader
	actions map[string]InjectFunc
	policy  AuthPolicy
	tracer  *observability.Tracer
	logger  *zap.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithAuthPolicy replaces the permissive default policy.
func WithAuthPolicy(policy AuthPolicy) Option {
	return func(p *Preprocessor) { p.policy = policy }
}

// WithTracer traces every delegated handler call.
func WithTracer(tracer *observability.Tracer) Option {
	return func(p *Preprocessor) { p.tracer = tracer }
}

// WithInjectAction registers an additional injection action.
func WithInjectAction(name string, fn InjectFunc) Option {
	return func(p *Preprocessor) { p.actions[name] = fn }
}

// NewPreprocessor creates a preprocessor reading identity through reader.
func NewPreprocessor(reader auth.TrustedClaimsReader, logger *zap.Logger, opts ...Option) *Preprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Preprocessor{
		reader: reader,
		actions: map[string]InjectFunc{
			RepoAction: setUsernameOnRepos,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func setUsernameOnRepos(username string, _ auth.Claims, collaborators []Collaborator) {
	for _, c := range collaborators {
		c.SetUsername(username)
	}
}

// Wrap gives handler the full preprocessing pipeline.
func (p *Preprocessor) Wrap(handler Handler, injections ...Injection) LambdaHandler {
	return func(ctx context.Context, raw events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		_, resp, err := p.Run(ctx, raw, handler, injections...)
		return resp, err
	}
}

// Run processes one raw event and returns the typed event together with
// the handler result, which is passed through unchanged.
func (p *Preprocessor) Run(
	ctx context.Context,
	raw events.APIGatewayProxyRequest,
	handler Handler,
	injections ...Injection,
) (event *Event, resp events.APIGatewayProxyResponse, err error) {
	logger := p.logger.With(
		zap.String("request_id", requestID(ctx, raw)),
		zap.String("method", raw.HTTPMethod),
		zap.String("path", raw.Path),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Request panicked", zap.Any("panic", r))
			p.tracer.RecordError(ctx, fmt.Errorf("panic: %v", r))
			resp, err = common.StandardError(), nil
		}
	}()

	event = ParseEvent(raw)

	claims, err := p.deriveClaims(event, logger)
	if err != nil {
		logger.Warn("Rejecting request", zap.Error(err))
		return event, common.Unauthorized(), nil
	}

	username := enrich(event, claims)
	if username != "" {
		p.inject(username, claims, injections)
		p.tracer.AddAnnotation(ctx, "username", username)
	}
	logger.Debug("Request preprocessed", zap.Bool("authenticated", username != ""))

	err = p.tracer.TraceFunction(ctx, "handler", func(ctx context.Context) error {
		var herr error
		resp, herr = handler(ctx, event)
		return herr
	})
	return event, resp, err
}

func (p *Preprocessor) deriveClaims(event *Event, logger *zap.Logger) (auth.Claims, error) {
	header, ok := event.Header(AuthHeaderName)
	if !ok || strings.TrimSpace(header) == "" {
		if p.policy.RequireToken {
			return nil, fmt.Errorf("%w: %v", errUnauthenticated, auth.ErrMissingToken)
		}
		return auth.Claims{}, nil
	}

	claims, err := p.reader.ReadClaims(header)
	if err != nil {
		if p.policy.RejectMalformed || p.policy.RequireToken {
			return nil, fmt.Errorf("%w: %v", errUnauthenticated, err)
		}
		logger.Warn("Ignoring unreadable authorization token", zap.Error(err))
		return auth.Claims{}, nil
	}
	if claims == nil {
		claims = auth.Claims{}
	}
	return claims, nil
}

// enrich copies the namespaced username claim to claims and headers.
func enrich(event *Event, claims auth.Claims) string {
	username, ok := claims.Username()
	if !ok {
		return ""
	}
	claims[auth.UsernameKey] = username
	event.Headers[auth.UsernameKey] = username
	return username
}

func (p *Preprocessor) inject(username string, claims auth.Claims, injections []Injection) {
	for _, injection := range injections {
		fn, ok := p.actions[injection.Action]
		if !ok {
			continue
		}
		fn(username, claims, injection.Collaborators)
	}
}

func requestID(ctx context.Context, raw events.APIGatewayProxyRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return raw.RequestContext.RequestID
}
