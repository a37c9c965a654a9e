// Package middleware provides HTTP middleware for the detection API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Permissive CORS for browser clients on other origins
package middleware
