package payload

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/url"
	"strings"
)

/* Decode turns a captured request body into the JSON value stored on the record
 * JSON bodies are kept as documents, form bodies become objects,
 * anything else is kept verbatim as a JSON string. An empty body is absent (nil)
 */
func Decode(contentType string, body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	switch mediaType(contentType) {
	case "application/json":
		if json.Valid(body) {
			return compact(body)
		}
	case "application/x-www-form-urlencoded":
		if form, ok := decodeForm(body); ok {
			return form
		}
	}

	return Text(body)
}

// Text encodes the body as a JSON string, leaving HTML characters unescaped
func Text(body []byte) json.RawMessage {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail
	_ = enc.Encode(string(body))
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// mediaType returns the lower-cased media type, folding structured +json suffixes into application/json
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(mt, "+json") {
		return "application/json"
	}
	return mt
}

// decodeForm maps single values to strings and repeated keys to arrays
func decodeForm(body []byte) (json.RawMessage, bool) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, false
	}

	form := make(map[string]interface{}, len(values))
	for key, vs := range values {
		if len(vs) == 1 {
			form[key] = vs[0]
			continue
		}
		form[key] = vs
	}

	data, err := json.Marshal(form)
	if err != nil {
		return nil, false
	}
	return data, true
}

func compact(body []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return body
	}
	return buf.Bytes()
}
