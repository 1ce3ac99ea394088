// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/bild/internal/core/domain"
)

// CommandRunner launches external programs.
//
//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type CommandRunner interface {
	// Run executes the invocation to completion and captures its output.
	//
	// A non-zero exit status or a failure to launch returns a
	// *domain.CommandError alongside whatever result was collected.
	Run(ctx context.Context, inv *domain.Invocation) (*domain.CommandResult, error)
}
