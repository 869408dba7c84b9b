package runner

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/dist-check/internal/domain/dist"
)

// DetectActor gathers host and user information for the report.
func DetectActor() (*dist.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &dist.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
