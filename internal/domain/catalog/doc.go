// Package catalog defines the closed set of subscription plan tiers and their
// admission limits. The catalog is loaded once at startup and immutable for
// the process lifetime; every admission decision resolves limits against it.
package catalog
