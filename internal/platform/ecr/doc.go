// Package ecr empties image repositories and issues registry login tokens.
package ecr
