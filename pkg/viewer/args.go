package viewer

import (
	"fmt"
	"strconv"

	"github.com/modoterra/alog/pkg/config"
)

// LaunchArgs are the viewer's positional arguments.
type LaunchArgs struct {
	Port         int
	AcceptRemote bool
}

// ParseLaunchArgs reads "[port] [acceptRemote]". Bad values fall back to
// the defaults; each fallback produces a warning for the console.
func ParseLaunchArgs(args []string) (LaunchArgs, []string) {
	la := LaunchArgs{Port: config.DefaultPort}
	var warnings []string

	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		switch {
		case err != nil:
			warnings = append(warnings,
				fmt.Sprintf("Error parsing Port: %v", err),
				fmt.Sprintf("Using default Port: %d", config.DefaultPort))
		case !config.ValidPort(port):
			warnings = append(warnings,
				fmt.Sprintf("Error parsing Port: %d is outside %d-%d", port, config.MinPort, config.MaxPort),
				fmt.Sprintf("Using default Port: %d", config.DefaultPort))
		default:
			la.Port = port
		}
	}

	if len(args) > 1 {
		accept, err := strconv.ParseBool(args[1])
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Error parsing acceptRemote: %v, accepting local datagrams only", err))
		} else {
			la.AcceptRemote = accept
		}
	}

	return la, warnings
}
