package aws

import (
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/codeartifact"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecrpublic"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// publicRegistryRegion is the only region serving the public image registry API.
const publicRegistryRegion = "us-east-1"

// globalRegion is where Route 53 is signed.
const globalRegion = "us-east-1"

// Clients holds one SDK client per service, all built from the same configuration.
// Constructing a client does not contact AWS.
type Clients struct {
	Config awsv2.Config

	CloudFormation *cloudformation.Client
	ECR            *ecr.Client
	ECRPublic      *ecrpublic.Client
	Batch          *batch.Client
	SFN            *sfn.Client
	Lambda         *lambda.Client
	SSM            *ssm.Client
	STS            *sts.Client
	Route53        *route53.Client
	Cognito        *cognitoidentityprovider.Client
	CodeArtifact   *codeartifact.Client
}

// NewClients creates all service clients from cfg.
func NewClients(cfg awsv2.Config) *Clients {
	return &Clients{
		Config:         cfg,
		CloudFormation: cloudformation.NewFromConfig(cfg),
		ECR:            ecr.NewFromConfig(cfg),
		ECRPublic: ecrpublic.NewFromConfig(cfg, func(o *ecrpublic.Options) {
			o.Region = publicRegistryRegion
		}),
		Batch:  batch.NewFromConfig(cfg),
		SFN:    sfn.NewFromConfig(cfg),
		Lambda: lambda.NewFromConfig(cfg),
		SSM:    ssm.NewFromConfig(cfg),
		STS:    sts.NewFromConfig(cfg),
		Route53: route53.NewFromConfig(cfg, func(o *route53.Options) {
			o.Region = globalRegion
		}),
		Cognito:      cognitoidentityprovider.NewFromConfig(cfg),
		CodeArtifact: codeartifact.NewFromConfig(cfg),
	}
}
