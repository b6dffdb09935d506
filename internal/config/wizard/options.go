package wizard

import "github.com/charmbracelet/huh"

// RegionOption represents an AWS region.
type RegionOption struct {
	Value       string
	Description string
}

// Regions contains the regions offered by the wizard.
var Regions = []RegionOption{
	{Value: "us-east-1", Description: "N. Virginia"},
	{Value: "us-east-2", Description: "Ohio"},
	{Value: "us-west-2", Description: "Oregon"},
	{Value: "eu-west-1", Description: "Ireland"},
	{Value: "eu-central-1", Description: "Frankfurt"},
	{Value: "eu-north-1", Description: "Stockholm"},
	{Value: "ap-southeast-1", Description: "Singapore"},
	{Value: "ap-southeast-2", Description: "Sydney"},
	{Value: "ap-northeast-1", Description: "Tokyo"},
}

// Capability values accepted by stack operations.
const (
	CapabilityIAM        = "CAPABILITY_IAM"
	CapabilityNamedIAM   = "CAPABILITY_NAMED_IAM"
	CapabilityAutoExpand = "CAPABILITY_AUTO_EXPAND"
)

// CapabilityOptions lists the stack capabilities.
var CapabilityOptions = []huh.Option[string]{
	huh.NewOption("IAM resources", CapabilityIAM),
	huh.NewOption("Named IAM resources", CapabilityNamedIAM),
	huh.NewOption("Macros and nested transforms", CapabilityAutoExpand),
}

// RegionsToOptions converts Regions to huh options.
func RegionsToOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(Regions))
	for i, r := range Regions {
		opts[i] = huh.NewOption(r.Value+" ("+r.Description+")", r.Value)
	}
	return opts
}
