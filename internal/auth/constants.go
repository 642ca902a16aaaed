package auth

// AuthCookieName is the name of the httpOnly cookie used for browser session auth.
// It is shared by the HTTP middleware and the WebSocket upgrade.
const AuthCookieName = "sol_token"
