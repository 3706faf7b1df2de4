// Package autoload initialises logging from LOG_* environment variables on import.
package autoload

import (
	configx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/config"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

func init() {
	cfg, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*cfg)
}
