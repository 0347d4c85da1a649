// Package middleware holds the http.Handler adapters a host wraps its HTTP surface in.
package middleware
