package parsers

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/reoring/formskema/document"
)

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

func numberFunc(n document.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	s := amountReplacer.Replace(CleanText(n.Text()))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

// integerFunc yields int64. Serialized records keep every digit; validate.JSON
// decodes numbers exactly, so values beyond 2^53 re-validate unchanged.
func integerFunc(n document.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	s := amountReplacer.Replace(CleanText(n.Text()))
	if s == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return i, nil
}
