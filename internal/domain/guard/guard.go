// Package guard decides whether a requested view renders or redirects,
// based on the view's access requirement and whether a session is present.
package guard

// Requirement describes how a view is wrapped.
// The zero value is an unguarded view.
type Requirement int

const (
	// Public views render regardless of session state.
	Public Requirement = iota
	// RequireAuth views need a session (guard(requireAuth=true)).
	RequireAuth
	// GuestOnly views are hidden from signed-in users (guard(requireAuth=false)).
	GuestOnly
)

// For maps the requireAuth flag of a guarded view to its Requirement.
func For(requireAuth bool) Requirement {
	if requireAuth {
		return RequireAuth
	}
	return GuestOnly
}

func (r Requirement) String() string {
	switch r {
	case RequireAuth:
		return "require_auth"
	case GuestOnly:
		return "guest_only"
	default:
		return "public"
	}
}

// Outcome is the kind of guard decision.
type Outcome string

const (
	Render            Outcome = "render"
	RedirectSignIn    Outcome = "redirect_signin"
	RedirectDashboard Outcome = "redirect_dashboard"
)

// Decision is the result of evaluating a guard. Location is set for redirects.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Location string  `json:"location,omitempty"`
}

// IsRedirect reports whether the decision sends the client elsewhere.
func (d Decision) IsRedirect() bool { return d.Outcome != Render }

const (
	DefaultSignInPath    = "/SignIn"
	DefaultDashboardPath = "/dashboard"
)

// Paths are the redirect targets used by Decide.
type Paths struct {
	SignIn    string
	Dashboard string
}

// DefaultPaths returns the stock sign-in and dashboard paths.
func DefaultPaths() Paths {
	return Paths{SignIn: DefaultSignInPath, Dashboard: DefaultDashboardPath}
}

func (p Paths) withDefaults() Paths {
	if p.SignIn == "" {
		p.SignIn = DefaultSignInPath
	}
	if p.Dashboard == "" {
		p.Dashboard = DefaultDashboardPath
	}
	return p
}

// Decide evaluates a requirement against the current session presence.
// It is pure; callers must re-evaluate on every navigation.
func (p Paths) Decide(req Requirement, sessionPresent bool) Decision {
	p = p.withDefaults()
	switch {
	case req == RequireAuth && !sessionPresent:
		return Decision{Outcome: RedirectSignIn, Location: p.SignIn}
	case req == GuestOnly && sessionPresent:
		return Decision{Outcome: RedirectDashboard, Location: p.Dashboard}
	default:
		return Decision{Outcome: Render}
	}
}

// Decide evaluates req with the default paths.
func Decide(req Requirement, sessionPresent bool) Decision {
	return DefaultPaths().Decide(req, sessionPresent)
}
