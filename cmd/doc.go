// Package cmd implements the tokenauth command line.
package cmd
