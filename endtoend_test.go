package main

import (
	"embed"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stilt-dev/stilt/checker"
	"github.com/stilt-dev/stilt/frontend/decl"
	"github.com/stilt-dev/stilt/internal/config"
)

//go:embed testdata
var testSet embed.FS

// format is as follows:
//
//	# stilt:checkTest expected codes | none, or E007,E010
func extractExpectedCodes(t *testing.T, str string) []string {
	firstLine := strings.Split(str, "\n")[0]
	trimmed := strings.TrimPrefix(firstLine, "# stilt:checkTest ")
	if trimmed == firstLine {
		t.Fatalf("fixture has no checkTest comment: '%v'", firstLine)
	}
	if strings.TrimSpace(trimmed) == "none" {
		return nil
	}
	return strings.Split(strings.TrimSpace(trimmed), ",")
}

func TestRootEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("testdata")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		t.Run(f.Name(), func(t *testing.T) {
			raw, err := testSet.ReadFile("testdata/" + f.Name())
			require.NoError(t, err)
			expected := extractExpectedCodes(t, string(raw))

			doc, err := decl.ParseDocument(raw)
			require.NoError(t, err)
			errs, err := checker.Check(doc, config.Default())
			require.NoError(t, err)

			var got []string
			for _, d := range errs.Errors() {
				got = append(got, fmt.Sprintf("E%03d", d.Code()))
			}
			assert.Equal(t, expected, got, "diagnostics: %v", errs.Errors())
		})
	}
}
