// Package config holds the client options (API paths, user types, OAuth
// provider tables and window strategy) and the functions that build them.
//
// Options are assembled once at startup in three layers, later layers
// winning field by field:
//
//  1. Defaults, derived from the platform location
//  2. ~/.config/tokenauth/config.yaml (optional)
//  3. TOKENAUTH_* environment variables
//
// Merge is a shallow merge: a non-zero override field replaces the base
// field, and map or slice fields are replaced as a whole.
//
// Example config.yaml:
//
//	apiBase: https://api.example.com
//	apiPath: v1
//	signOutFailedValidate: true
//	userTypes:
//	  - name: ADMIN
//	    path: admin
//	oAuthPaths:
//	  github: auth/github
//	oAuthWindowType: newWindow
package config
