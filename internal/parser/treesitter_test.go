package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/semindex/internal/model"
)

func TestExtractUnitsAcrossLanguages(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		ext      string
		source   string
		expected []struct {
			name string
			kind model.UnitType
		}
	}{
		{
			name: "go_function_and_method",
			path: "calc.go",
			ext:  ".go",
			source: `package main

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

type Calculator struct{}

func (c *Calculator) Multiply(a, b int) int {
	return a * b
}
`,
			expected: []struct {
				name string
				kind model.UnitType
			}{
				{"Add", model.UnitFunction},
				{"Calculator", model.UnitStruct},
				{"Multiply", model.UnitMethod},
			},
		},
		{
			name: "python_class_and_method",
			path: "widget.py",
			ext:  ".py",
			source: `class Widget:
    def render(self):
        pass

def _helper():
    pass
`,
			expected: []struct {
				name string
				kind model.UnitType
			}{
				{"Widget", model.UnitClass},
				{"render", model.UnitMethod},
				{"_helper", model.UnitFunction},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, ok, err := Parse(context.Background(), tt.path, tt.ext, []byte(tt.source), "deadbeef")
			require.NoError(t, err)
			require.True(t, ok)
			defer pt.Close()

			units, err := ExtractUnits(pt)
			require.NoError(t, err)
			require.NotEmpty(t, units)
			require.Equal(t, model.UnitFile, units[0].UnitType)
			require.Equal(t, 0, units[0].Depth)

			for _, exp := range tt.expected {
				found := false
				for _, u := range units {
					if u.Name != nil && *u.Name == exp.name && u.UnitType == exp.kind {
						found = true
						break
					}
				}
				require.True(t, found, "expected unit %s (%s) not found", exp.name, exp.kind)
			}
		})
	}
}

func TestExtractUnitsGoVisibility(t *testing.T) {
	src := `package main

func Exported() {}
func unexported() {}
`
	pt, ok, err := Parse(context.Background(), "x.go", ".go", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := ExtractUnits(pt)
	require.NoError(t, err)

	for _, u := range units {
		if u.Name == nil {
			continue
		}
		switch *u.Name {
		case "Exported":
			require.True(t, u.Metadata.IsExported)
		case "unexported":
			require.False(t, u.Metadata.IsExported)
		}
	}
}

func TestExtractUnitsTypeScriptExportVisibility(t *testing.T) {
	src := `export function greet(name: string): string {
	return "hi " + name;
}

function helper(): void {}
`
	pt, ok, err := Parse(context.Background(), "x.ts", ".ts", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := ExtractUnits(pt)
	require.NoError(t, err)

	for _, u := range units {
		if u.Name == nil {
			continue
		}
		switch *u.Name {
		case "greet":
			require.True(t, u.Metadata.IsExported)
			require.Equal(t, model.VisibilityPublic, u.Metadata.Visibility)
		case "helper":
			require.False(t, u.Metadata.IsExported)
			require.Equal(t, model.VisibilityPrivate, u.Metadata.Visibility)
		}
	}
}

func TestExtractUnitsJavaVisibility(t *testing.T) {
	src := `class Widget {
	public void render() {}
	private void paint() {}
}
`
	pt, ok, err := Parse(context.Background(), "Widget.java", ".java", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := ExtractUnits(pt)
	require.NoError(t, err)

	for _, u := range units {
		if u.Name == nil {
			continue
		}
		switch *u.Name {
		case "render":
			require.True(t, u.Metadata.IsExported)
			require.Equal(t, model.VisibilityPublic, u.Metadata.Visibility)
		case "paint":
			require.False(t, u.Metadata.IsExported)
			require.Equal(t, model.VisibilityPrivate, u.Metadata.Visibility)
		}
	}
}

func TestExtractUnitsRustVisibility(t *testing.T) {
	src := `pub fn greet() {}

fn helper() {}
`
	pt, ok, err := Parse(context.Background(), "lib.rs", ".rs", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := ExtractUnits(pt)
	require.NoError(t, err)

	for _, u := range units {
		if u.Name == nil {
			continue
		}
		switch *u.Name {
		case "greet":
			require.True(t, u.Metadata.IsExported)
			require.Equal(t, model.VisibilityPublic, u.Metadata.Visibility)
		case "helper":
			require.False(t, u.Metadata.IsExported)
			require.Equal(t, model.VisibilityPrivate, u.Metadata.Visibility)
		}
	}
}

func TestParseUnsupportedExtensionIsSkippedNotFailed(t *testing.T) {
	pt, ok, err := Parse(context.Background(), "x.unknown", ".unknown", []byte("whatever"), "h")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, pt)
}

func TestHierarchyGoReceiverMethodIsNotLexicallyNested(t *testing.T) {
	src := `package main

type Calculator struct{}

func (c *Calculator) Multiply(a, b int) int {
	return a * b
}
`
	pt, ok, err := Parse(context.Background(), "calc.go", ".go", []byte(src), "h")
	require.NoError(t, err)
	require.True(t, ok)
	defer pt.Close()

	units, err := ExtractUnits(pt)
	require.NoError(t, err)

	var structID string
	var method *model.CodeUnit
	for i := range units {
		u := &units[i]
		if u.UnitType == model.UnitStruct {
			structID = u.ID
		}
		if u.UnitType == model.UnitMethod {
			method = u
		}
	}
	require.NotNil(t, method)
	require.NotEmpty(t, structID)
	require.NotNil(t, method.ParentID)
	require.NotEqual(t, structID, *method.ParentID)
}
