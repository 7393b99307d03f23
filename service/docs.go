package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulldump/apitest"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/rowsetdb/utils"
)

// Save renders an exchange as a markdown example (curl command plus raw
// HTTP) into the directory named by API_EXAMPLES_PATH. Nothing is written
// when the variable is unset.
func Save(response *apitest.Response, title, description string) {
	dir := os.Getenv("API_EXAMPLES_PATH")
	if dir == "" {
		return
	}

	request := response.Request
	path := request.URL.Path
	if request.URL.RawQuery != "" {
		path += "?" + request.URL.RawQuery
	}
	requestBody := indentJSON(response.BodyRequestString())

	md := &strings.Builder{}
	fmt.Fprintf(md, "# %s\n\n", title)
	if description != "" {
		fmt.Fprintf(md, "%s\n\n", strings.TrimSpace(description))
	}

	md.WriteString("```sh\ncurl")
	if request.Method != "GET" {
		md.WriteString(" -X " + request.Method)
	}
	md.WriteString(` "https://example.com` + path + `"`)
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(md, " \\\n  -H \"%s: %s\"", k, v)
		}
	}
	if requestBody != "" {
		md.WriteString(" \\\n  -d '" + requestBody + "'")
	}
	md.WriteString("\n```\n\n")

	md.WriteString("```http\n")
	fmt.Fprintf(md, "%s %s %s\nHost: example.com\n", request.Method, path, request.Proto)
	for _, k := range utils.GetKeys(request.Header) {
		for _, v := range request.Header[k] {
			fmt.Fprintf(md, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(md, "\n%s\n\n", requestBody)

	fmt.Fprintf(md, "%s %s\n", response.Proto, response.Status)
	for _, k := range utils.GetKeys(response.Header) {
		if k == "Date" {
			continue
		}
		for _, v := range response.Header[k] {
			fmt.Fprintf(md, "%s: %s\n", k, v)
		}
	}
	fmt.Fprintf(md, "\n%s\n```\n", indentJSON(response.BodyString()))

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	err := os.WriteFile(filepath.Join(dir, filepath.Clean(filename)), []byte(md.String()), 0666)
	if err != nil {
		fmt.Println("Saving err:", err)
	}
}

func indentJSON(body string) string {
	var v any
	if json.Unmarshal([]byte(body), &v) != nil {
		return body
	}
	b, err := json.Marshal(v, jsontext.WithIndent("    "), json.Deterministic(true))
	if err != nil {
		return body
	}
	return string(b)
}
