package domain

import "fmt"

// Warning records one node the encoder dropped without aborting the Save.
type Warning struct {
	Code    string `json:"code" yaml:"code"`
	Path    string `json:"path" yaml:"path"`
	Kind    Kind   `json:"-" yaml:"-"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s (%s): %s", w.Code, w.Path, w.Kind, w.Message)
}

// NewWarning builds a warning carrying the code of err.
func NewWarning(err *DomainError, path string, kind Kind, message string) Warning {
	return Warning{
		Code:    err.Code,
		Path:    path,
		Kind:    kind,
		Message: message,
	}
}

// Warnings is the ordered list of warnings raised by one Save.
type Warnings []Warning

// Count returns how many warnings carry the code of err.
func (ws Warnings) Count(err *DomainError) int {
	n := 0
	for _, w := range ws {
		if w.Code == err.Code {
			n++
		}
	}
	return n
}

// ByCode groups warning counts by code.
func (ws Warnings) ByCode() map[string]int {
	out := make(map[string]int)
	for _, w := range ws {
		out[w.Code]++
	}
	return out
}
