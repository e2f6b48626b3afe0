package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// FeatureUID records a feature identifier under the key "feature_uid".
func FeatureUID(uid string) slog.Attr {
	return slog.String("feature_uid", uid)
}

// UID records an entity identifier under the key "uid".
func UID(uid string) slog.Attr {
	return slog.String("uid", uid)
}

// Group records a feature group name under the key "group".
// If name is empty, it returns an empty Attr.
func Group(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("group", name)
}

// Role records a role name under the key "role".
func Role(role string) slog.Attr {
	return slog.String("role", role)
}

// Action records an audit action under the key "action".
func Action(action string) slog.Attr {
	return slog.String("action", action)
}

// Listener records a listener registration name under the key "listener".
func Listener(name string) slog.Attr {
	return slog.String("listener", name)
}

// Backend records a storage backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Count records a number of items under the key "count".
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// User records the acting user under the key "user".
// If name is empty, it returns an empty Attr.
func User(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("user", name)
}
