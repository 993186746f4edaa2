package client

// Decision is a route-guard verdict. Pending means the boot sequence has not
// finished: render a neutral placeholder, never a redirect, so the user does
// not see a flash of the wrong screen.
type Decision struct {
	Allow    bool
	Pending  bool
	Redirect string
}

const (
	loginRoute = "/login"
	homeRoute  = "/"
)

// RequireAuth gates a protected route: unauthenticated visitors go to login.
func (c *Client) RequireAuth() Decision {
	s := c.Session()
	switch {
	case !s.Ready:
		return Decision{Pending: true}
	case !s.Authenticated:
		return Decision{Redirect: loginRoute}
	default:
		return Decision{Allow: true}
	}
}

// RequireRole gates a role-specific route. An authenticated user with the
// wrong role lands on the generic authenticated page, not a 403 screen.
func (c *Client) RequireRole(role string) Decision {
	s := c.Session()
	switch {
	case !s.Ready:
		return Decision{Pending: true}
	case !s.Authenticated:
		return Decision{Redirect: loginRoute}
	case s.User.Role != role:
		return Decision{Redirect: homeRoute}
	default:
		return Decision{Allow: true}
	}
}

// RedirectIfAuthed keeps logged-in users off the login/register pages.
func (c *Client) RedirectIfAuthed() Decision {
	s := c.Session()
	switch {
	case !s.Ready:
		return Decision{Pending: true}
	case s.Authenticated:
		return Decision{Redirect: homeRoute}
	default:
		return Decision{Allow: true}
	}
}

// HasRole is a convenience predicate for UI-level checks.
func (c *Client) HasRole(roles ...string) bool {
	s := c.Session()
	if !s.Authenticated {
		return false
	}
	for _, r := range roles {
		if s.User.Role == r {
			return true
		}
	}
	return false
}
