package util

import (
	"fmt"
	"strings"
)

// JoinString renders each element with fmt.Stringer and joins them with sep.
func JoinString[S fmt.Stringer](elems []S, sep string) string {
	strs := make([]string, len(elems))
	for i, e := range elems {
		strs[i] = e.String()
	}
	return strings.Join(strs, sep)
}
