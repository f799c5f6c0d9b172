package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// 模型输出契约：顶层对象含 reasoning 与 actions 数组。
// 校验只约束结构，具体条目仍逐条规整，坏条目丢弃而非整体失败。
const actionsSchema = `{
  "type": "object",
  "required": ["actions"],
  "properties": {
    "reasoning": {"type": "string"},
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["action", "symbol"],
        "properties": {
          "action": {"type": "string"},
          "symbol": {"type": "string"},
          "qty": {"type": ["integer", "number", "string"]},
          "price": {"type": ["number", "null", "string"]},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`

var compiledActionsSchema = mustCompileSchema(actionsSchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("actions.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("actions.json")
}

// ExtractJSONObject 提取文本中首个平衡的 JSON 对象（模型常把 JSON 包在说明文字或代码块里）。
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1]), true
			}
		}
	}
	return "", false
}

// ParseLLMResult 从模型原始输出解析出 Result。
// 流程：提取 JSON → schema 校验 → 逐条规整（坏条目丢弃）。
func ParseLLMResult(role, raw string, obs Observation) (Result, error) {
	payload, ok := ExtractJSONObject(raw)
	if !ok {
		return Result{}, fmt.Errorf("no JSON object found in %s output", role)
	}
	if !gjson.Valid(payload) {
		return Result{}, fmt.Errorf("invalid JSON in %s output", role)
	}
	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return Result{}, fmt.Errorf("decode %s output failed: %w", role, err)
	}
	if err := compiledActionsSchema.Validate(doc); err != nil {
		return Result{}, fmt.Errorf("%s output failed schema validation: %w", role, err)
	}

	parsed := gjson.Parse(payload)
	res := Result{Role: role, Reasoning: parsed.Get("reasoning").String()}
	parsed.Get("actions").ForEach(func(_, entry gjson.Result) bool {
		sym := strings.ToUpper(strings.TrimSpace(entry.Get("symbol").String()))
		if _, known := obs.Symbols[sym]; !known {
			// 契约要求只能对观测集内的标的提案。
			return true
		}
		qty := entry.Get("qty").Int()
		if qty < 0 {
			qty = 0
		}
		var limit *float64
		if px := entry.Get("price"); px.Exists() && px.Type == gjson.Number && px.Float() > 0 {
			v := px.Float()
			limit = &v
		}
		act, err := NewAction(entry.Get("action").String(), sym, qty, limit, entry.Get("reason").String())
		if err != nil {
			return true // 坏条目丢弃
		}
		act.Source = role
		res.Actions = append(res.Actions, act)
		return true
	})
	return res, nil
}
