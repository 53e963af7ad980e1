package logger

import "log/slog"

// Common attribute keys for consistent logging across the application

// Request attributes
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func Method(method string) slog.Attr {
	return slog.String("method", method)
}

func Path(path string) slog.Attr {
	return slog.String("path", path)
}

func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

func UserAgent(ua string) slog.Attr {
	return slog.String("user_agent", ua)
}

func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

func Duration(ms int64) slog.Attr {
	return slog.Int64("duration_ms", ms)
}

// Identity attributes
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

func TenantID(id string) slog.Attr {
	return slog.String("tenant_id", id)
}

func Subdomain(s string) slog.Attr {
	return slog.String("subdomain", s)
}

func Email(email string) slog.Attr {
	return slog.String("email", email)
}

func Role(role string) slog.Attr {
	return slog.String("role", role)
}

// Error attributes
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Component attributes
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Operation(op string) slog.Attr {
	return slog.String("operation", op)
}
