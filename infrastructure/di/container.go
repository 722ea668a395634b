// Package di wires one function's settings, logger, AWS clients,
// repositories and preprocessor. Everything is built once per cold start.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"minicourse-backend/domain/minicourse"
	"minicourse-backend/infrastructure/awsclient"
	"minicourse-backend/infrastructure/config"
	"minicourse-backend/infrastructure/email"
	"minicourse-backend/infrastructure/persistence"
	"minicourse-backend/infrastructure/persistence/dynamodb"
	"minicourse-backend/infrastructure/storage"
	"minicourse-backend/interfaces/lambda/pipeline"
	"minicourse-backend/pkg/auth"
	"minicourse-backend/pkg/logging"
	"minicourse-backend/pkg/observability"
)

// Container holds the dependencies of one function.
type Container struct {
	Settings     config.Settings
	Logger       *zap.Logger
	Clients      *awsclient.Clients
	Tracer       *observability.Tracer
	Preprocessor *pipeline.Preprocessor
	ColdStart    *ColdStartTracker
}

// Bootstrap loads target and builds the container around it. Settings are
// read twice: once to learn region and endpoint, then again with "ssm:"
// values resolved through the freshly built SSM client.
func Bootstrap(ctx context.Context, target config.Settings) (*Container, error) {
	tracker := NewColdStartTracker()

	if err := config.Load(ctx, target); err != nil {
		return nil, err
	}
	base := target.BaseSettings()

	logger, err := logging.New(base.Environment, base.LogLevel)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("service", base.ServiceName))

	clients, err := awsclient.New(ctx, awsclient.Options{
		Region:      base.AWSRegion,
		EndpointURL: base.AWSEndpointURL,
		Tracing:     base.EnableTracing,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS clients: %w", err)
	}

	if err := config.Load(ctx, target, config.WithResolver(config.NewSSMResolver(clients.SSM))); err != nil {
		return nil, err
	}

	return New(target, logger, clients, tracker), nil
}

// MustBootstrap is Bootstrap for main packages.
func MustBootstrap(ctx context.Context, target config.Settings) *Container {
	c, err := Bootstrap(ctx, target)
	if err != nil {
		logging.Must("", "").Fatal("Failed to initialize container", zap.Error(err))
	}
	return c
}

// New builds a container from already loaded parts. A nil tracker starts
// the cold start clock now.
func New(settings config.Settings, logger *zap.Logger, clients *awsclient.Clients, tracker *ColdStartTracker) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = NewColdStartTracker()
	}
	base := settings.BaseSettings()
	tracer := observability.NewTracer(base.ServiceName, base.EnableTracing)

	return &Container{
		Settings: settings,
		Logger:   logger,
		Clients:  clients,
		Tracer:   tracer,
		Preprocessor: pipeline.NewPreprocessor(auth.NewUnverifiedJWTReader(), logger,
			pipeline.WithAuthPolicy(AuthPolicy(base)),
			pipeline.WithTracer(tracer),
		),
		ColdStart: tracker,
	}
}

// AuthPolicy maps the auth flags of base onto the preprocessor policy.
func AuthPolicy(base *config.Base) pipeline.AuthPolicy {
	return pipeline.AuthPolicy{
		RequireToken:    base.AuthRequireToken,
		RejectMalformed: base.AuthRejectMalformed,
	}
}

// DispatchPolicy is the unknown-action policy of multiplexed get functions.
func (c *Container) DispatchPolicy() pipeline.UnknownActionPolicy {
	if c.Settings.BaseSettings().DispatchRejectUnknown {
		return pipeline.RejectUnknown
	}
	return pipeline.IgnoreUnknown
}

// Table opens the named DynamoDB table.
func (c *Container) Table(name string) *dynamodb.Table {
	return dynamodb.NewTable(c.Clients.DynamoDB, name, c.Logger)
}

// Bucket opens the named S3 bucket.
func (c *Container) Bucket(name string) *storage.Bucket {
	return storage.NewBucket(name, c.Clients.Presign, c.Clients.S3, c.Logger)
}

// MinicourseRepository stores minicourses in table and their thumbnails in
// bucket. An empty bucket name leaves the repository without file access.
func (c *Container) MinicourseRepository(table, bucket string) *persistence.Repository[minicourse.Minicourse] {
	return newRepository[minicourse.Minicourse](c, "minicourse", table, bucket)
}

// CategoryRepository stores categories in table.
func (c *Container) CategoryRepository(table string) *persistence.Repository[minicourse.Category] {
	return newRepository[minicourse.Category](c, "category", table, "")
}

// VideoRepository stores videos in table and their files in bucket.
func (c *Container) VideoRepository(table, bucket string) *persistence.Repository[minicourse.Video] {
	return newRepository[minicourse.Video](c, "video", table, bucket)
}

func newRepository[T any](c *Container, resource, table, bucket string) *persistence.Repository[T] {
	var opts []persistence.Option[T]
	if bucket != "" {
		opts = append(opts, persistence.WithObjectStore[T](c.Bucket(bucket)))
	}
	return persistence.NewRepository[T](resource, c.Table(table), c.Logger, opts...)
}

// Mailer sends email through SES.
func (c *Container) Mailer() *email.Sender {
	return email.NewSender(c.Clients.SES, c.Logger)
}

// Handler wraps handler in the preprocessor and records cold starts.
func (c *Container) Handler(handler pipeline.Handler, injections ...pipeline.Injection) pipeline.LambdaHandler {
	wrapped := c.Preprocessor.Wrap(handler, injections...)
	return func(ctx context.Context, raw events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if c.ColdStart.Invoked() {
			c.Logger.Info("Cold start invocation",
				zap.Duration("since_cold_start", c.ColdStart.GetTimeSinceColdStart()))
		}
		return wrapped(ctx, raw)
	}
}

// Start hands the wrapped handler to the Lambda runtime. It never returns.
func (c *Container) Start(handler pipeline.Handler, injections ...pipeline.Injection) {
	c.Logger.Info("Starting function", zap.Duration("init", c.ColdStart.GetTimeSinceColdStart()))
	lambda.Start(c.Handler(handler, injections...))
}

// Sync flushes buffered log entries.
func (c *Container) Sync() {
	_ = c.Logger.Sync()
}

// initTimeout bounds cold start work in main packages.
const initTimeout = 10 * time.Second

// InitContext returns the context main packages bootstrap under.
func InitContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), initTimeout)
}
