package handlers

import (
	"context"
	"time"

	awsplatform "github.com/imamik/infrabuilder/internal/platform/aws"
	"github.com/imamik/infrabuilder/internal/platform/ecr"
	"github.com/imamik/infrabuilder/internal/stack"
	"github.com/imamik/infrabuilder/internal/task"
)

// stackService adds describing to the task stack service.
type stackService interface {
	task.StackService
	Describe(ctx context.Context, name string) (*stack.Stack, error)
}

// parameterStore reads, writes and deletes parameters.
type parameterStore interface {
	task.ParameterService
	GetSecureString(ctx context.Context, name string) (string, error)
}

// registryLogin issues private registry credentials.
type registryLogin interface {
	LoginToken(ctx context.Context) (*ecr.Login, error)
}

// Service factories - can be replaced in tests.
var (
	newStackService = func(env *Env, timeout time.Duration) stackService {
		return env.Reconciler(timeout)
	}
	newJobService = func(env *Env) task.JobService {
		return env.JobRunner()
	}
	newWorkflowService = func(env *Env) task.WorkflowService {
		return env.WorkflowRunner()
	}
	newFunctionService = func(env *Env) task.FunctionService {
		return env.Deployer()
	}
	newParameterStore = func(env *Env) parameterStore {
		return awsplatform.NewParameters(env.Clients.SSM)
	}
	newRegistryLogin = func(env *Env) registryLogin {
		return ecr.NewClient(env.Clients.ECR)
	}
	publicRegistryAPI = func(env *Env) ecr.PublicAPI {
		return env.Clients.ECRPublic
	}
	stsAPI = func(env *Env) awsplatform.STSClient {
		return env.Clients.STS
	}
	route53API = func(env *Env) awsplatform.Route53Client {
		return env.Clients.Route53
	}
	cognitoAPI = func(env *Env) awsplatform.CognitoClient {
		return env.Clients.Cognito
	}
	codeArtifactAPI = func(env *Env) awsplatform.CodeArtifactClient {
		return env.Clients.CodeArtifact
	}
)
