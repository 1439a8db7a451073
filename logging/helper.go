package logging

// OrNop 在 logger 为空时返回 Nop
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}
