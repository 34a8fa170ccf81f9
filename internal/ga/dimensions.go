package ga

import (
	"fmt"
	"strings"
)

// Property is a Google Analytics web property id.
type Property string

const (
	Website Property = "UA-12381236-1"
	Mobile  Property = "UA-12381236-10"
	Desktop Property = "UA-12381236-12"
)

// ParseProperty accepts desktop, mobile, website or a raw UA- id.
func ParseProperty(s string) (Property, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desktop", "":
		return Desktop, nil
	case "mobile":
		return Mobile, nil
	case "website", "x-plane.com":
		return Website, nil
	}
	if strings.HasPrefix(s, "UA-") {
		return Property(s), nil
	}
	return "", fmt.Errorf("unknown property %q", s)
}

// CustomDimension is a desktop custom dimension index.
type CustomDimension int

const (
	Aircraft          CustomDimension = 2
	Region            CustomDimension = 3
	Mission           CustomDimension = 4
	EndCondition      CustomDimension = 5
	Retry             CustomDimension = 7
	ProductLevel      CustomDimension = 8
	Screen            CustomDimension = 10
	VrHeadset         CustomDimension = 11
	VrControllers     CustomDimension = 12
	FlightControls    CustomDimension = 13
	RenderingSettings CustomDimension = 14
	AcfStartType      CustomDimension = 15
	Os                CustomDimension = 16
	Cpu               CustomDimension = 17
	Gpu               CustomDimension = 18
	Ram               CustomDimension = 19
	AbTests           CustomDimension = 20
)

func (d CustomDimension) String() string {
	return fmt.Sprintf("ga:dimension%d", int(d))
}

// Metric is a reporting metric.
type Metric string

const (
	Events   Metric = "ga:totalEvents"
	Users    Metric = "ga:users"
	Sessions Metric = "ga:sessions"
	Crashes  Metric = "ga:fatalExceptions"
)

func (m Metric) String() string { return string(m) }

// UserGroup is a filter on the product level dimension.
type UserGroup string

const (
	AllUsers UserGroup = ""
	// PaidOnly drops product levels containing "Demo".
	PaidOnly UserGroup = "ga:dimension8!@Demo"
	DemoOnly UserGroup = "ga:dimension8=@Demo"
)

// ParseUserGroup accepts all, paid or demo.
func ParseUserGroup(s string) (UserGroup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return AllUsers, nil
	case "paid", "paidonly":
		return PaidOnly, nil
	case "demo", "demoonly":
		return DemoOnly, nil
	default:
		return "", fmt.Errorf("unknown user group %q", s)
	}
}

// Filter returns the filter expression, empty for all users.
func (g UserGroup) Filter() string { return string(g) }

// Name is the short name used in report file names.
func (g UserGroup) Name() string {
	switch g {
	case PaidOnly:
		return "PaidOnly"
	case DemoOnly:
		return "DemoOnly"
	default:
		return "All"
	}
}
