package json

import (
	"encoding/json"
	"fmt"
)

// SafeMarshal 安全的JSON序列化，提供更好的错误信息
func SafeMarshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return data, nil
}

// SafeUnmarshal 安全的JSON反序列化，提供更好的错误信息
func SafeUnmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("cannot unmarshal empty data into %T", v)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal into %T: %w", v, err)
	}
	return nil
}

// ExtractStringField 提取JSON对象顶层的字符串字段，缺失时返回空串
func ExtractStringField(data []byte, field string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse JSON: %w", err)
	}

	if value, ok := parsed[field].(string); ok {
		return value, nil
	}
	return "", nil
}

// RewriteStringField 重写JSON对象顶层的字符串字段。
// rewrite 返回 (新值, 是否改写)；字段缺失或未改写时返回原数据。
func RewriteStringField(data []byte, field string, rewrite func(value string) (string, bool)) ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	value, ok := parsed[field].(string)
	if !ok {
		return data, nil
	}

	newValue, changed := rewrite(value)
	if !changed {
		return data, nil
	}

	parsed[field] = newValue
	return SafeMarshal(parsed)
}
