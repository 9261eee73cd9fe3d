package main

func debugLog(format string, a ...any) {
	logger.Debugf(format, a...)
}
