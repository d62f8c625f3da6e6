// Package common contains shared constants and sentinel errors used across
// FieldSignal components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access
// token on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix prefixes the token value in AuthorizationHeaderName.
const BearerPrefix = "Bearer "
