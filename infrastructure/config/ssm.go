package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/knadh/koanf/v2"
)

// ParameterPrefix marks a value that names an SSM parameter.
const ParameterPrefix = "ssm:"

// ParameterResolver returns the decrypted value of a named parameter.
type ParameterResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// SSMAPI is the subset of the SSM client SSMResolver uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads SecureString and String parameters from Parameter Store.
type SSMResolver struct {
	client SSMAPI
}

// NewSSMResolver creates a resolver backed by client.
func NewSSMResolver(client SSMAPI) *SSMResolver {
	return &SSMResolver{client: client}
}

// Resolve implements ParameterResolver.
func (r *SSMResolver) Resolve(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if out.Parameter == nil {
		return "", nil
	}
	return aws.ToString(out.Parameter.Value), nil
}

// resolveParameters replaces every "ssm:<name>" value with the parameter's
// value. Without a resolver values are left as they are.
func resolveParameters(ctx context.Context, k *koanf.Koanf, resolver ParameterResolver) error {
	if resolver == nil {
		return nil
	}
	for key, value := range k.All() {
		s, ok := value.(string)
		if !ok || !strings.HasPrefix(s, ParameterPrefix) {
			continue
		}

		resolved, err := resolver.Resolve(ctx, strings.TrimPrefix(s, ParameterPrefix))
		if err != nil {
			return fmt.Errorf("could not resolve setting %s: %w", key, err)
		}
		if err := k.Set(key, resolved); err != nil {
			return fmt.Errorf("could not set resolved setting %s: %w", key, err)
		}
	}
	return nil
}
