package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP method and route pattern.
type ActionResource struct {
	Action   string
	Resource string
}

// routeOverrides maps "METHOD pattern" to an action/resource pair that the generic rules get wrong.
var routeOverrides = map[string]ActionResource{
	"POST /api/broadcast-message": {Action: "send", Resource: "sms"},
	"POST /api/upload":            {Action: "create", Resource: "upload"},
	"GET /api/backup":             {Action: "export", Resource: "backup"},
	"GET /api/export-messages":    {Action: "export", Resource: "inbox"},
}

// ParseRoute returns action and resource for a chi route pattern (e.g. "DELETE", "/api/inbox/{id}").
// Resource is the last static path segment with dashes turned into underscores.
// Action is derived from the method: POST and PUT and PATCH are "update", DELETE is "delete", GET is "get".
func ParseRoute(method, pattern string) ActionResource {
	method = strings.ToUpper(method)
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	return ActionResource{Action: methodToAction(method), Resource: patternToResource(pattern)}
}

func patternToResource(pattern string) string {
	segs := strings.Split(strings.Trim(pattern, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		if s == "" || s == "api" || strings.HasPrefix(s, "{") || s == "*" {
			continue
		}
		return strings.ReplaceAll(s, "-", "_")
	}
	return "unknown"
}

func methodToAction(method string) string {
	switch method {
	case "GET", "HEAD":
		return "get"
	case "POST", "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
