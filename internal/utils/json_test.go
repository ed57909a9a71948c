package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONBlock(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"surrounding prose", "Here you go:\n{\"a\": 1}\nHope that helps!", `{"a": 1}`},
		{"nested braces", `note {"a": {"b": 2}} end`, `{"a": {"b": 2}}`},
		{"no object at all", "no json here", "no json here"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSONBlock(tc.in))
		})
	}
}

func TestAppErrorCodes(t *testing.T) {
	err := E(CodeTimeout, "TrendService.Generate", "trend summarization timed out", nil)
	assert.True(t, IsCode(err, CodeTimeout))
	assert.False(t, IsCode(err, CodeInternal))
	assert.Equal(t, 504, HTTPStatus(err))
	assert.Equal(t, 429, HTTPStatus(E(CodeRateLimited, "", "slow down", nil)))
	assert.Equal(t, 500, HTTPStatus(assert.AnError))
}
