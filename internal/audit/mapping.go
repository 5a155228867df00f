package audit

import "strings"

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// Auth method overrides: login and token refresh are audited by the auth
// service itself (with subject and outcome), so the interceptor maps them to
// the same action strings the service uses. These names take effect once an
// embedding application registers the auth RPC surface on the server.
const (
	authLogin   = "/authkeep.auth.v1.AuthService/Login"
	authRefresh = "/authkeep.auth.v1.AuthService/Refresh"
	authLogout  = "/authkeep.auth.v1.AuthService/Logout"
)

// ParseFullMethod returns action and resource for a gRPC full method
// (e.g. /authkeep.session.v1.SessionService/ListSessions).
// Action is a verb: get, list, create, update, delete, or a lowercase method
// name for others. Resource is derived from the service name
// (e.g. SessionService -> session).
func ParseFullMethod(fullMethod string) ActionResource {
	switch fullMethod {
	case authLogin:
		return ActionResource{Action: "login", Resource: "auth"}
	case authRefresh:
		return ActionResource{Action: "token_refresh", Resource: "auth"}
	case authLogout:
		return ActionResource{Action: "logout", Resource: "auth"}
	}
	// fullMethod format: /authkeep.package.v1.ServiceName/MethodName
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	serviceName := beforeSlash[dot+1:]
	resource := serviceToResource(serviceName)
	action := methodToAction(method)
	return ActionResource{Action: action, Resource: resource}
}

func serviceToResource(serviceName string) string {
	// SessionService -> session, ApiKeyService -> apiKey
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Create"):
		return "create"
	case strings.HasPrefix(method, "Update"):
		return "update"
	case strings.HasPrefix(method, "Delete"):
		return "delete"
	case strings.HasPrefix(method, "Register"):
		return "register"
	case strings.HasPrefix(method, "Revoke"):
		return "revoke"
	case strings.HasPrefix(method, "Cancel"):
		return "cancel"
	case strings.HasPrefix(method, "Verify"):
		return "verify"
	case strings.HasPrefix(method, "Enroll"):
		return "enroll"
	default:
		return strings.ToLower(method)
	}
}
