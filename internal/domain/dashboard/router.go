// Package dashboard selects which dashboard variant a session mounts.
package dashboard

import (
	"errors"
	"fmt"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
)

// Variant names one of the two mutually exclusive dashboard roots.
type Variant string

const (
	EmployerDashboard  Variant = "employer-dashboard"
	JobSeekerDashboard Variant = "jobseeker-dashboard"
)

// ErrUnrecognizedRole is returned for a missing or unknown role. It is never mapped to a default variant.
var ErrUnrecognizedRole = errors.New("unrecognized role")

// MisconfiguredMessage is the user-facing text for ErrUnrecognizedRole.
const MisconfiguredMessage = "your account is misconfigured, contact support"

// Select returns the dashboard variant for role.
func Select(role domainauth.Role) (Variant, error) {
	switch role {
	case domainauth.RoleEmployer:
		return EmployerDashboard, nil
	case domainauth.RoleJobSeeker:
		return JobSeekerDashboard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedRole, string(role))
	}
}
