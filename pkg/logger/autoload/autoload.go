// Package autoload initializes the global zerolog logger from LOG_*
// environment variables as a side effect of being imported.
package autoload

import (
	configx "github.com/tanpawarit/fedreg-agent/pkg/config"
	logx "github.com/tanpawarit/fedreg-agent/pkg/logger"
)

func init() {
	conf := configx.MustNew[logx.Config]("LOG")
	logx.Init(*conf)
}
