package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// Route53Client defines the Route 53 operations used here.
type Route53Client interface {
	ListHostedZones(ctx context.Context, params *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
}

// HostedZones lists every hosted zone of the account, following all pages.
func HostedZones(ctx context.Context, api Route53Client) ([]r53types.HostedZone, error) {
	var (
		zones  []r53types.HostedZone
		marker *string
	)
	for {
		page, err := api.ListHostedZones(ctx, &route53.ListHostedZonesInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("failed to list hosted zones: %w", err)
		}
		zones = append(zones, page.HostedZones...)

		// NextMarker is only present on truncated listings.
		if page.NextMarker == nil {
			return zones, nil
		}
		marker = page.NextMarker
	}
}
