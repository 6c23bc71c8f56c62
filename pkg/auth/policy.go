package auth

import (
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// methodArn looks like:
//
//	arn:aws:execute-api:{region}:{account}:{apiId}/{stage}/{method}/{path...}
//
// The emitted policy widens the resource to every method and path of the
// same stage so the gateway can cache one authorizer result per token.
type methodArn struct {
	Region  string
	Account string
	APIID   string
	Stage   string
}

func parseMethodArn(arn string) (methodArn, error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 6 {
		return methodArn{}, fmt.Errorf("malformed method arn %q", arn)
	}
	pathParts := strings.Split(parts[5], "/")
	if len(pathParts) < 2 {
		return methodArn{}, fmt.Errorf("malformed method arn resource %q", parts[5])
	}
	return methodArn{
		Region:  parts[3],
		Account: parts[4],
		APIID:   pathParts[0],
		Stage:   pathParts[1],
	}, nil
}

func (m methodArn) wildcardResource() string {
	return fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s/*/*", m.Region, m.Account, m.APIID, m.Stage)
}

// AllowPolicy builds an authorizer response granting the caller access
// to the API stage, with the resolved identity in the context map for
// the backend to read.
func AllowPolicy(principalID, rawMethodArn string, context map[string]interface{}) (events.APIGatewayCustomAuthorizerResponse, error) {
	arn, err := parseMethodArn(rawMethodArn)
	if err != nil {
		return events.APIGatewayCustomAuthorizerResponse{}, err
	}
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principalID,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   "Allow",
					Resource: []string{arn.wildcardResource()},
				},
			},
		},
		Context: context,
	}, nil
}

// DenyPolicy builds a fail-closed authorizer response. It denies the
// whole stage; an unparseable arn still produces a syntactically valid
// deny rather than an authorizer error the gateway would surface as 500.
func DenyPolicy(rawMethodArn string) events.APIGatewayCustomAuthorizerResponse {
	resource := rawMethodArn
	if arn, err := parseMethodArn(rawMethodArn); err == nil {
		resource = arn.wildcardResource()
	}
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: "anonymous",
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   "Deny",
					Resource: []string{resource},
				},
			},
		},
	}
}
