// Package common contains shared constants and sentinel errors used across
// cloud-drive components.
package common

// SessionCookieName is the cookie that carries the opaque session secret
// on browser requests.
const SessionCookieName = "session-token"
