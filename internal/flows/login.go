package flows

import "context"

const PathLogin = "/auth/login"

type loginBody struct {
	Identifier string `json:"identifier"`
	UserID     string `json:"userId"`
	Password   string `json:"password"`
}

// RunLogin posts the credentials. The identifier is sent under both keys the
// backend has accepted over time.
func RunLogin(ctx context.Context, identifier, password string, deps Deps) (*Outcome, error) {
	return Run(ctx, Call{
		Path:    PathLogin,
		Body:    loginBody{Identifier: identifier, UserID: identifier, Password: password},
		Subject: identifier,
		Messages: Messages{
			Success:   "Login successful.",
			Rejected:  "Login failed",
			Server:    "Login failed",
			Transport: "Login failed: no response from server.",
		},
		Metrics: deps.Metrics.Login,
		Events:  deps.Events.Login,
	}, deps)
}
