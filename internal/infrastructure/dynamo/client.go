package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/taratrabaho/jobboard-api/internal/config"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/awsinfra"
)

// NewClient creates a DynamoDB client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint so all traffic goes to the local instance.
func NewClient(awsCfg aws.Config, cfg *config.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if ep := awsinfra.Endpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
		}
	})
}
