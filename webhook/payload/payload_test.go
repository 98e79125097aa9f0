package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	t.Run("json body is kept as a document", func(t *testing.T) {
		body := []byte(`{
			"type": "user.created",
			"data": {"user_id": 123}
		}`)

		got := Decode("application/json; charset=utf-8", body)

		assert.JSONEq(t, `{"type":"user.created","data":{"user_id":123}}`, string(got))
		assert.NotContains(t, string(got), "\n")
	})

	t.Run("structured json suffix", func(t *testing.T) {
		got := Decode("application/vnd.github+json", []byte(`[1,2,3]`))

		assert.JSONEq(t, `[1,2,3]`, string(got))
	})

	t.Run("invalid json is kept as text", func(t *testing.T) {
		got := Decode("application/json", []byte(`{"broken":`))

		var s string
		assert.NoError(t, json.Unmarshal(got, &s))
		assert.Equal(t, `{"broken":`, s)
	})

	t.Run("form body becomes an object", func(t *testing.T) {
		got := Decode("application/x-www-form-urlencoded", []byte("a=1&b=two&b=three"))

		assert.JSONEq(t, `{"a":"1","b":["two","three"]}`, string(got))
	})

	t.Run("malformed form is kept as text", func(t *testing.T) {
		got := Decode("application/x-www-form-urlencoded", []byte("a=%zz"))

		assert.Equal(t, `"a=%zz"`, string(got))
	})

	t.Run("plain text", func(t *testing.T) {
		got := Decode("text/plain", []byte("hello\nworld"))

		assert.Equal(t, `"hello\nworld"`, string(got))
	})

	t.Run("missing content type", func(t *testing.T) {
		got := Decode("", []byte(`{"a":1}`))

		assert.Equal(t, `"{\"a\":1}"`, string(got))
	})

	t.Run("empty body is absent", func(t *testing.T) {
		assert.Nil(t, Decode("application/json", nil))
		assert.Nil(t, Decode("text/plain", []byte("  \n")))
	})
}

func TestText(t *testing.T) {
	assert.Equal(t, `"<xml/>"`, string(Text([]byte("<xml/>"))))
}
