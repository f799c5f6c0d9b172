package decision

import "strings"

// NormalizeKind 统一动作名称：大小写不敏感，并将 wait/none 视为 hold。
func NormalizeKind(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	switch k {
	case "wait", "none", "":
		return KindHold
	}
	return k
}
