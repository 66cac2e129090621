// Package main provides the docstyle command-line checker.
//
// Usage:
//
//	docstyle check thesis.pdf
//	docstyle check --format markdown --fail chapter1.pdf chapter2.pdf
//	docstyle tree thesis.pdf
//	docstyle standard
package main

func main() {
	Execute()
}
