// Package awsclient builds the AWS service clients shared by one function.
package awsclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	awsDynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"
)

// Options selects region, endpoint and instrumentation.
type Options struct {
	Region string
	// EndpointURL points every client at a local emulator when set.
	EndpointURL string
	Tracing     bool
}

// Clients holds the initialized AWS service clients
type Clients struct {
	Config   aws.Config
	DynamoDB *awsDynamodb.Client
	S3       *s3.Client
	Presign  *s3.PresignClient
	SES      *ses.Client
	SSM      *ssm.Client
}

// InLambda reports whether the process runs inside the Lambda runtime.
func InLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// New loads the default AWS configuration and creates the clients.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Clients, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var loadOpts []func(*awsConfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsConfig.WithRegion(opts.Region))
	}
	loadOpts = append(loadOpts, awsConfig.WithHTTPClient(newHTTPClient()))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if opts.Tracing {
		awsv2.AWSV2Instrumentor(&cfg.APIOptions)
	}

	clients := fromConfig(cfg, opts.EndpointURL)

	logger.Info("AWS clients initialized",
		zap.String("region", cfg.Region),
		zap.String("endpoint", opts.EndpointURL),
		zap.Bool("tracing", opts.Tracing),
		zap.Duration("duration", time.Since(startTime)),
	)
	return clients, nil
}

func fromConfig(cfg aws.Config, endpoint string) *Clients {
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Clients{
		Config: cfg,
		DynamoDB: awsDynamodb.NewFromConfig(cfg, func(o *awsDynamodb.Options) {
			o.RetryMaxAttempts = 3
			o.RetryMode = aws.RetryModeAdaptive
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		}),
		S3:      s3Client,
		Presign: s3.NewPresignClient(s3Client),
		SES: ses.NewFromConfig(cfg, func(o *ses.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		}),
		SSM: ssm.NewFromConfig(cfg, func(o *ssm.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		}),
	}
}

// newHTTPClient reuses connections across warm invocations. It stays
// buildable so the SDK can still add AWS_CA_BUNDLE roots to the transport.
func newHTTPClient() *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithTimeout(30 * time.Second).
		WithTransportOptions(func(tr *http.Transport) {
			tr.MaxIdleConns = 200
			tr.MaxIdleConnsPerHost = 20
			tr.IdleConnTimeout = 90 * time.Second
			tr.TLSHandshakeTimeout = 10 * time.Second
			if InLambda() {
				tr.MaxIdleConns = 100
				tr.MaxIdleConnsPerHost = 10
			}
		})
}
