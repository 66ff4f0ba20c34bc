package keyframe

import (
	"errors"
	"fmt"
	"strings"

	"keyframer/internal/config"
	"keyframer/internal/services"
)

// Method names a keyframe selection strategy.
type Method string

const (
	MethodIFrames Method = config.MethodIFrames
	MethodColor   Method = config.MethodColor
	MethodFlow    Method = config.MethodFlow
)

// ErrInvalidMethod reports an unknown method name.
var ErrInvalidMethod = errors.New("invalid keyframe method")

// Methods lists the accepted methods in display order, as configured by
// config.ValidMethods.
func Methods() []Method {
	methods := make([]Method, 0, len(config.ValidMethods))
	for _, name := range config.ValidMethods {
		methods = append(methods, Method(name))
	}
	return methods
}

// ParseMethod resolves a method name. Matching ignores case and surrounding
// whitespace. Unknown names return an error matching both ErrInvalidMethod
// and services.ErrValidation.
func ParseMethod(value string) (Method, error) {
	candidate := Method(strings.ToLower(strings.TrimSpace(value)))
	for _, m := range Methods() {
		if candidate == m {
			return m, nil
		}
	}
	return "", services.Wrap(
		services.ErrValidation,
		"dispatch",
		"parse method",
		fmt.Sprintf("%q is not a valid method (valid: %s)", value, methodList()),
		ErrInvalidMethod,
	)
}

func (m Method) String() string { return string(m) }

// NeedsFrames reports whether the method reads decoded frames.
func (m Method) NeedsFrames() bool {
	return m == MethodColor || m == MethodFlow
}

func methodList() string {
	names := make([]string, 0, len(Methods()))
	for _, m := range Methods() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
