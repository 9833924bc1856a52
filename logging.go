package lightstate

import glog "github.com/goliatone/go-logger/glog"

const loggerName = "lightstate"

// Logger is the structured logger used by containers and watchers.
type Logger = glog.Logger

// LoggerProvider hands out named loggers.
type LoggerProvider = glog.LoggerProvider

func resolveLogger(provider LoggerProvider, logger Logger) Logger {
	provider, logger = glog.Resolve(loggerName, provider, logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(loggerName); named != nil {
			logger = glog.Ensure(named)
		}
	}
	return logger
}
