// Package jwt issues and parses the HS256 login tokens handed out by the ERP auth
// API, and decodes tokens without verification for display.
package jwt
