package handler

// Route pattern constants for chi router registration.
const (
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteHealth is the health probe route.
	RouteHealth = "/healthz"

	// RouteMe is the current-account route prefix.
	RouteMe = "/me"
	// RouteEvents is the events route prefix.
	RouteEvents = "/events"
	// RouteAdmin is the admin route prefix.
	RouteAdmin = "/admin"
	// RouteUsers is the user administration route prefix, under RouteAdmin.
	RouteUsers = "/users"
	// RouteAudit is the audit log route, under RouteAdmin.
	RouteAudit = "/audit"
	// RouteStats is the dashboard stats route, under RouteAdmin.
	RouteStats = "/stats"
)
