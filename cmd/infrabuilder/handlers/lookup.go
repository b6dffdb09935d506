package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"

	awsplatform "github.com/imamik/infrabuilder/internal/platform/aws"
	"github.com/imamik/infrabuilder/internal/platform/ecr"
)

// RegistryLogin prints docker login credentials for the private registry.
func RegistryLogin(ctx context.Context, opts Options) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		login, err := newRegistryLogin(env).LoginToken(ctx)
		if err != nil {
			return err
		}
		printLogin(login)
		return nil
	})
}

// PublicRegistryLogin prints docker login credentials for the public registry.
func PublicRegistryLogin(ctx context.Context, opts Options) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		login, err := ecr.PublicLoginToken(ctx, publicRegistryAPI(env))
		if err != nil {
			return err
		}
		printLogin(login)
		return nil
	})
}

func printLogin(l *ecr.Login) {
	fmt.Fprintf(stdout, "hostname: %s\nusername: %s\npassword: %s\n", l.Hostname, l.Username, l.Password)
	if !l.ExpiresAt.IsZero() {
		fmt.Fprintf(stdout, "expires:  %s\n", l.ExpiresAt.Format(time.RFC3339))
	}
}

// SessionToken prints temporary credentials as shell exports.
func SessionToken(ctx context.Context, opts Options) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		creds, err := awsplatform.SessionToken(ctx, stsAPI(env))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "export AWS_ACCESS_KEY_ID=%s\n", creds.AccessKeyID)
		fmt.Fprintf(stdout, "export AWS_SECRET_ACCESS_KEY=%s\n", creds.SecretAccessKey)
		fmt.Fprintf(stdout, "export AWS_SESSION_TOKEN=%s\n", creds.SessionToken)
		return nil
	})
}

// HostedZones prints the ID and name of every hosted zone.
func HostedZones(ctx context.Context, opts Options) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		zones, err := awsplatform.HostedZones(ctx, route53API(env))
		if err != nil {
			return err
		}
		for _, z := range zones {
			id := strings.TrimPrefix(awsv2.ToString(z.Id), "/hostedzone/")
			fmt.Fprintf(stdout, "%s %s\n", id, awsv2.ToString(z.Name))
		}
		return nil
	})
}

// UserPoolDomain prints the description of a user pool domain.
func UserPoolDomain(ctx context.Context, opts Options, domain string) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		d, err := awsplatform.UserPoolDomain(ctx, cognitoAPI(env), domain)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "domain:       %s\n", awsv2.ToString(d.Domain))
		fmt.Fprintf(stdout, "user pool:    %s\n", awsv2.ToString(d.UserPoolId))
		fmt.Fprintf(stdout, "status:       %s\n", d.Status)
		fmt.Fprintf(stdout, "distribution: %s\n", awsv2.ToString(d.CloudFrontDistribution))
		return nil
	})
}

// CodeArtifactToken prints the PyPI endpoint and token of a repository as shell exports.
func CodeArtifactToken(ctx context.Context, opts Options, domain, owner, repository string) error {
	return withEnv(ctx, opts, false, func(env *Env) error {
		access, err := awsplatform.PyPIAccess(ctx, codeArtifactAPI(env), domain, owner, repository)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "export CODEARTIFACT_AUTH_TOKEN=%s\n", access.AuthorizationToken)
		fmt.Fprintf(stdout, "export CODEARTIFACT_REPOSITORY_URL=%s\n", access.RepositoryEndpoint)
		return nil
	})
}
