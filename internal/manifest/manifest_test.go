package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPyprojectExtractsNameAndDependenciesWithoutVersionSpecifiers(t *testing.T) {
	dir := t.TempDir()
	content := "[project]\n" +
		"name = \"demo\"\n" +
		"dependencies = [\"requests>=2.0\", \"click==8.1\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(content), 0o644))

	info := Load(dir)
	require.Equal(t, "demo", info.Name)
	require.ElementsMatch(t, []string{"requests", "click"}, info.Dependencies)
}

func TestLoadPyprojectFallsBackToPoetryTable(t *testing.T) {
	dir := t.TempDir()
	content := "[tool.poetry]\n" +
		"name = \"demo-poetry\"\n" +
		"[tool.poetry.dependencies]\n" +
		"python = \"^3.11\"\n" +
		"fastapi = \"^0.100\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(content), 0o644))

	info := Load(dir)
	require.Equal(t, "demo-poetry", info.Name)
	require.ElementsMatch(t, []string{"fastapi"}, info.Dependencies)
}

func TestLoadCargoExtractsDependencyNames(t *testing.T) {
	dir := t.TempDir()
	content := "[package]\nname = \"demo-rs\"\n[dependencies]\nserde = \"1\"\ntokio = \"1\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(content), 0o644))

	info := Load(dir)
	require.Equal(t, "demo-rs", info.Name)
	require.ElementsMatch(t, []string{"serde", "tokio"}, info.Dependencies)
}

func TestLoadReturnsEmptyInfoWhenNoManifestPresent(t *testing.T) {
	dir := t.TempDir()
	info := Load(dir)
	require.Empty(t, info.Name)
	require.Empty(t, info.Dependencies)
}

func TestLoadRequirementsTxtStripsVersionOperators(t *testing.T) {
	dir := t.TempDir()
	content := "# comment\nrequests==2.31.0\nclick>=8\n\nnumpy\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte(content), 0o644))

	info := Load(dir)
	require.ElementsMatch(t, []string{"requests", "click", "numpy"}, info.Dependencies)
}
