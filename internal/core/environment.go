package core

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Environment is the deployment stage the advisor runs in. It picks the log
// format and the gin mode.
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

func (e Environment) IsProduction() bool {
	return e == Production
}

// GinMode maps the environment onto gin's release, test and debug modes.
func (e Environment) GinMode() string {
	switch e {
	case Production:
		return gin.ReleaseMode
	case Testing:
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// ParseEnvironment accepts the full names and the usual short forms
// ("prod", "test", "dev"). Anything else is Development.
func ParseEnvironment(v string) Environment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "production", "prod":
		return Production
	case "testing", "test":
		return Testing
	default:
		return Development
	}
}
