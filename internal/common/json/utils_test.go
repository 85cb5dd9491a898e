package json

import (
	"encoding/json"
	"testing"
)

func TestExtractStringField(t *testing.T) {
	data := []byte(`{"model":"gpt-4","stream":true}`)

	got, err := ExtractStringField(data, "model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "gpt-4" {
		t.Errorf("got %s, want gpt-4", got)
	}

	// 缺失字段与非字符串字段返回空串
	if got, _ := ExtractStringField(data, "missing"); got != "" {
		t.Errorf("missing field should return empty, got %s", got)
	}
	if got, _ := ExtractStringField(data, "stream"); got != "" {
		t.Errorf("non-string field should return empty, got %s", got)
	}
}

func TestRewriteStringField(t *testing.T) {
	data := []byte(`{"model":"gpt-4","n":1}`)

	out, err := RewriteStringField(data, "model", func(v string) (string, bool) {
		return "gpt-4-turbo", v == "gpt-4"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("rewritten body is not valid JSON: %v", err)
	}
	if parsed["model"] != "gpt-4-turbo" {
		t.Errorf("model: got %v, want gpt-4-turbo", parsed["model"])
	}
	if parsed["n"].(float64) != 1 {
		t.Error("other fields must be preserved")
	}

	// 未改写时返回原数据
	same, err := RewriteStringField(data, "model", func(v string) (string, bool) {
		return "", false
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(same) != string(data) {
		t.Error("unchanged rewrite must return original data")
	}

	// 非JSON输入报错
	if _, err := RewriteStringField([]byte("not json"), "model", nil); err == nil {
		t.Error("invalid JSON should return an error")
	}
}
