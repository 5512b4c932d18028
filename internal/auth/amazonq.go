package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/arcanea-realm/arcanea/internal/registry"
)

const DefaultAWSRegion = "us-east-1"

// STSClient is the subset of the STS API used for validation.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// STSClientFactory builds an STS client for static credentials.
type STSClientFactory func(ctx context.Context, creds aws.Credentials) (STSClient, error)

// AmazonQAdapter validates AWS access keys with sts:GetCallerIdentity.
type AmazonQAdapter struct {
	base
	newClient STSClientFactory
}

// NewAmazonQAdapter creates an Amazon Q adapter in the given region.
func NewAmazonQAdapter(p registry.Provider, opts Options, region string) *AmazonQAdapter {
	opts = opts.withDefaults()
	if region == "" {
		region = DefaultAWSRegion
	}

	a := &AmazonQAdapter{base: base{provider: p, opts: opts}}
	a.newClient = func(ctx context.Context, creds aws.Credentials) (STSClient, error) {
		// Load AWS configuration with the static key pair
		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithHTTPClient(opts.HTTPClient),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return sts.NewFromConfig(cfg), nil
	}
	return a
}

// ParseAWSCredential splits "ACCESS_KEY_ID:SECRET_ACCESS_KEY[:SESSION_TOKEN]".
func ParseAWSCredential(credential string) (aws.Credentials, error) {
	parts := strings.SplitN(credential, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return aws.Credentials{}, errors.New("expected ACCESS_KEY_ID:SECRET_ACCESS_KEY")
	}
	creds := aws.Credentials{AccessKeyID: parts[0], SecretAccessKey: parts[1], Source: "arcanea"}
	if len(parts) == 3 {
		creds.SessionToken = parts[2]
	}
	return creds, nil
}

// Validate implements Adapter.
func (a *AmazonQAdapter) Validate(ctx context.Context, credential string) Session {
	s := a.session()

	creds, err := ParseAWSCredential(credential)
	if err != nil {
		s = fail(s, err)
		s.Status = StatusInvalid
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	client, err := a.newClient(ctx, creds)
	if err != nil {
		return fail(s, err)
	}

	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			err = &httpStatusError{code: respErr.HTTPStatusCode(), body: respErr.Err.Error()}
		}
		return fail(s, err)
	}

	s = succeed(s, []string{"amazon-q-developer"}, []string{"chat", "completions", "agents", "transforms"})
	s.Account = aws.ToString(out.Arn)
	return s
}

// DetectFromEnv implements Adapter.
func (a *AmazonQAdapter) DetectFromEnv(ctx context.Context) *Session {
	return a.detect(ctx, a.Validate)
}
