// Package domain provides the paper records, recommendation context and error
// taxonomy shared by the paper swipe service.
package domain
