package httpd

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/asterai-io/asterai-sub000/asterror"
)

// decodeResponse converts a handle() call's JSON-ready record output
// (ToJSON's map[string]any) into a Response, tolerating either the
// declared {status, headers, body_base64} record shape or a bare JSON
// object the guest assembled ad hoc with the same field names.
func decodeResponse(value any) (*Response, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, asterror.New(asterror.KindGuestTrap, "http handler response is not a record")
	}

	status := 200
	if raw, present := fields["status"]; present {
		n, err := asInt(raw)
		if err != nil {
			return nil, asterror.Wrap(asterror.KindGuestTrap, err, "http handler response status is not a number")
		}
		status = n
	}

	headers := map[string]string{}
	if raw, present := fields["headers"]; present {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, asterror.New(asterror.KindGuestTrap, "http handler response headers is not an object")
		}
		for k, v := range obj {
			s, ok := v.(string)
			if !ok {
				return nil, asterror.New(asterror.KindGuestTrap, "http handler response header value is not a string")
			}
			headers[k] = s
		}
	}

	var body []byte
	if raw, present := fields["body_base64"]; present {
		s, ok := raw.(string)
		if !ok {
			return nil, asterror.New(asterror.KindGuestTrap, "http handler response body_base64 is not a string")
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, asterror.Wrap(asterror.KindGuestTrap, err, "http handler response body_base64 is not valid base64")
		}
		body = decoded
	}

	return &Response{Status: status, Headers: headers, Body: body}, nil
}

func asInt(value any) (int, error) {
	switch n := value.(type) {
	case float64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case int64:
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, asterror.New(asterror.KindGuestTrap, "expected numeric status")
	}
}

// stripRoutePrefix removes "/{env-ns}/{env-name}/{comp-ns}/{comp-name}"
// from uri's path, preserving any query string, per §4.6 step 3. An empty
// remaining path becomes "/".
func stripRoutePrefix(uri, prefix string) string {
	path := uri
	query := ""
	if idx := strings.IndexByte(uri, '?'); idx != -1 {
		path, query = uri[:idx], uri[idx:]
	}

	remainder := strings.TrimPrefix(path, prefix)
	if remainder == "" {
		remainder = "/"
	}
	if !strings.HasPrefix(remainder, "/") {
		remainder = "/" + remainder
	}
	return remainder + query
}
