// Package logger wraps zap for dist-check and dist-agent:
//   - a global sugared logger writing console lines to stderr,
//   - context helpers (FromContext/WithName/WithKV),
//   - level configuration from flags or LOG_LEVEL,
//   - key-value convenience functions (InfoKV, ErrorKV, etc.).
//
// Services take a context and pull the logger out of it, so every scenario
// step logs with the executor, provider and version it belongs to.
package logger
