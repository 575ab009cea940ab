package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits an attribute path of the form
// "/group/object@attribute" into its object path and attribute name.
//
// Examples:
//   - "/@root_attr" -> objectPath="/", attrName="root_attr"
//   - "/minc-2.0/image/0/image@valid_range" -> objectPath="/minc-2.0/image/0/image"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	if path == "" {
		return "", "", fmt.Errorf("%w: empty attribute path", ErrInvalidPath)
	}
	at := strings.LastIndex(path, "@")
	if at == -1 {
		return "", "", fmt.Errorf("%w: %q has no '@' separator", ErrInvalidPath, path)
	}
	objectPath, attrName = path[:at], path[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: %q names no attribute", ErrInvalidPath, path)
	}
	if !strings.HasPrefix(objectPath, "/") {
		objectPath = "/" + objectPath
	}
	return objectPath, attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath splits a path into its non-empty components.
//
// Examples:
//   - "/" -> []string{}
//   - "/minc-2.0/image/" -> []string{"minc-2.0", "image"}
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
