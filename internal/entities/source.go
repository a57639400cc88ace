package entities

import "fmt"

// Source identifies a listing portal.
type Source string

const (
	SourceUrbania     Source = "urbania"
	SourceAdondevivir Source = "adondevivir"
	SourceProperati   Source = "properati"
	SourceInfocasas   Source = "infocasas"
)

func AllSources() []Source {
	return []Source{SourceUrbania, SourceAdondevivir, SourceProperati, SourceInfocasas}
}

func ToSource(s string) (Source, error) {
	switch Source(s) {
	case SourceUrbania, SourceAdondevivir, SourceProperati, SourceInfocasas:
		return Source(s), nil
	default:
		return "", fmt.Errorf("unknown source: %v", s)
	}
}
