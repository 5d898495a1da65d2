package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kwangun/internal/config"
	"kwangun/internal/rules"
	"kwangun/internal/store"
	"kwangun/internal/transcribe"
)

// env points the CLI at a scratch config path and database.
type env struct {
	dir    string
	config string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KWANGUN_DB", filepath.Join(dir, "readings.db"))
	t.Setenv("KWANGUN_DB_DRIVER", "")
	t.Setenv("KWANGUN_LOG_LEVEL", "")
	t.Setenv("KWANGUN_WORKERS", "")
	return env{dir: dir, config: filepath.Join(dir, "kwangun.yaml")}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger = zap.NewNop()
	return e.execute(t, args...)
}

// runBuildingLogger lets the root command build the logger from config.
func (e env) runBuildingLogger(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger = nil
	t.Cleanup(func() { logger = nil })
	return e.execute(t, args...)
}

func (e env) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e env) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const readingsYAML = `
- 字: 東
  纽: 端
  呼: 開
  等: 一
  韵: 東
  声: 平
  摄: 通
- 字: 鶇
  纽: 端
  呼: 開
  等: 一
  韵: 東
  声: 平
  摄: 通
- 字: 同
  纽: 定
  呼: 開
  等: 一
  韵: 東
  声: 平
  摄: 通
`

func TestDeriveFromFlags(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "derive", "--onset", "幫", "--hu", "合", "--grade", "三", "--rhyme", "虞", "--tone", "去")
	require.NoError(t, err)
	assert.Equal(t, "puoh\n", out)

	out, err = e.run(t, "derive", "--onset", "云", "--hu", "開", "--grade", "三", "--rhyme", "脂", "--tone", "平")
	require.NoError(t, err)
	assert.Equal(t, "yi\n", out)
}

func TestDeriveRejectsArgs(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "derive", "東")
	assert.Error(t, err)
}

func TestEval(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "eval", "三等 非 莊組", "--onset", "章", "--grade", "三")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = e.run(t, "eval", "合口", "--hu", "開")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	out, err = e.run(t, "eval", "--tree", "開口 或 合口", "--hu", "合")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "true", lines[1])
}

func TestSiHu(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "sihu", "--onset", "端", "--hu", "合", "--grade", "一")
	require.NoError(t, err)
	assert.Equal(t, "合口呼\n", out)

	out, err = e.run(t, "sihu", "--onset", "見", "--hu", "開", "--grade", "二")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "齊齒呼\t"), out)
	assert.Contains(t, out, "overrides 開口呼")
}

func TestExplain(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "explain", "--onset", "幫", "--hu", "開", "--grade", "四", "--rhyme", "添", "--tone", "入")
	require.NoError(t, err)
	for _, want := range []string{"onset", "rhyme", "unround", "grade", "labialize", "checked", "tone", "pep"} {
		assert.Contains(t, out, want)
	}
}

func TestImportDeriveQueryExport(t *testing.T) {
	e := newEnv(t)
	file := e.write(t, "readings.yaml", readingsYAML)

	out, err := e.run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 3 readings")

	out, err = e.run(t, "derive", "--char", "東")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "東\ttoyng\t"), out)

	out, err = e.run(t, "derive", "--all")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "同\tdoyng\t"), lines[2])

	out, err = e.run(t, "query", "homophone(A, B)")
	require.NoError(t, err)
	assert.Contains(t, out, "A\tB\n")
	assert.Contains(t, out, "東\t鶇\n")
	assert.Contains(t, out, "鶇\t東\n")
	assert.Contains(t, out, "2 results")

	out, err = e.run(t, "query", "--json", `transcription(ID, "同", P)`)
	require.NoError(t, err)
	var res struct {
		Variables []string            `json:"variables"`
		Bindings  []map[string]string `json:"bindings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"ID", "P"}, res.Variables)
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "doyng", res.Bindings[0]["P"])

	out, err = e.run(t, "query", `medial(_, "無", M)`)
	require.NoError(t, err)
	assert.Equal(t, "no results\n", out)

	out, err = e.run(t, "export")
	require.NoError(t, err)
	exported, err := store.ParseReadings([]byte(out))
	require.NoError(t, err)
	assert.Len(t, exported, 3)
}

func TestDeriveUnknownChar(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "derive", "--char", "無")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestQueryErrors(t *testing.T) {
	e := newEnv(t)
	_, err := e.run(t, "query", "nonexistent(X)")
	assert.Error(t, err)

	_, err = e.run(t, "import", filepath.Join(e.dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	assert.FileExists(t, e.config)

	_, err = e.run(t, "config", "init")
	assert.Error(t, err, "refuses to overwrite")

	_, err = e.run(t, "config", "init", "--force")
	require.NoError(t, err)

	out, err = e.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: sqlite")
	assert.Contains(t, out, filepath.Join(e.dir, "readings.db"))
}

func TestInvalidConfigFails(t *testing.T) {
	e := newEnv(t)
	e.write(t, "kwangun.yaml", "logging:\n  level: loud\n")

	_, err := e.run(t, "derive", "--onset", "幫")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestOnsetOverrides(t *testing.T) {
	e := newEnv(t)
	onsets := e.write(t, "onsets.yaml", "幫: b\n")
	e.write(t, "kwangun.yaml", "rules:\n  onsets_file: "+onsets+"\n")

	out, err := e.run(t, "derive", "--onset", "幫", "--hu", "合", "--grade", "三", "--rhyme", "虞", "--tone", "去")
	require.NoError(t, err)
	assert.Equal(t, "buoh\n", out)
}

func TestLoggerFollowsConfigLevel(t *testing.T) {
	e := newEnv(t)
	e.write(t, "kwangun.yaml", "logging:\n  level: debug\n  format: json\n")

	_, err := e.runBuildingLogger(t, "derive", "--onset", "幫")
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestLoggerFollowsEnvLevel(t *testing.T) {
	e := newEnv(t)
	t.Setenv("KWANGUN_LOG_LEVEL", "warn")

	_, err := e.runBuildingLogger(t, "derive", "--onset", "幫")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = e.runBuildingLogger(t, "--verbose", "derive", "--onset", "幫")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel), "--verbose wins over logging.level")
}

func TestQueryStatsAndFacts(t *testing.T) {
	e := newEnv(t)
	file := e.write(t, "readings.yaml", readingsYAML)
	_, err := e.run(t, "import", file)
	require.NoError(t, err)

	out, err := e.run(t, "query", "--stats", "homophone(A, B)")
	require.NoError(t, err)
	assert.Contains(t, out, "homophone\t2\n")
	assert.Contains(t, out, "reading\t3\n")
	assert.Contains(t, out, "same_rhyme_body\t6\n")

	out, err = e.run(t, "facts", "homophone")
	require.NoError(t, err)
	assert.Equal(t, "homophone(\"東\", \"鶇\").\nhomophone(\"鶇\", \"東\").\n", out)

	_, err = e.run(t, "facts", "undeclared")
	assert.Error(t, err)
}

func TestRhymeOverrides(t *testing.T) {
	e := newEnv(t)
	rhymes := e.write(t, "rhymes.yaml", "- when: 虞韻\n  then: y\n")
	flat := e.write(t, "flat.yaml", "試: an\n")
	e.write(t, "kwangun.yaml", "rules:\n  rhymes_file: "+rhymes+"\n  flat_rhymes_file: "+flat+"\n")

	// The override rule is tried before the built-in 虞模韻 rule.
	out, err := e.run(t, "derive", "--onset", "幫", "--hu", "合", "--grade", "三", "--rhyme", "虞", "--tone", "去")
	require.NoError(t, err)
	assert.Equal(t, "puyh\n", out)

	// Other rhymes still reach the built-in rules.
	out, err = e.run(t, "derive", "--onset", "云", "--hu", "開", "--grade", "三", "--rhyme", "脂", "--tone", "平")
	require.NoError(t, err)
	assert.Equal(t, "yi\n", out)

	out, err = e.run(t, "derive", "--onset", "端", "--hu", "開", "--grade", "一", "--rhyme", "試", "--tone", "平")
	require.NoError(t, err)
	assert.Equal(t, "tan\n", out)
}

func TestRhymeOverrideRejectsEmptyCondition(t *testing.T) {
	e := newEnv(t)
	rhymes := e.write(t, "rhymes.yaml", "- when: \"\"\n  then: y\n")
	e.write(t, "kwangun.yaml", "rules:\n  rhymes_file: "+rhymes+"\n")

	_, err := e.run(t, "derive", "--onset", "幫")
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrEmptyCondition))
}

func TestRulesDumpAndCheck(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "rules", "dump")
	require.NoError(t, err)
	dumped, err := rules.ParseList([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, transcribe.CompositeRhymes, dumped)

	good := e.write(t, "good.yaml", out)
	out, err = e.run(t, "rules", "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "rules ok")

	bad := e.write(t, "bad.yaml", "- when: 三等 開囗\n  then: x\n- when: 脂韻\n  then: i\n")
	out, err = e.run(t, "rules", "check", bad)
	require.Error(t, err)
	assert.Contains(t, out, "rule 0")
	assert.Contains(t, out, "開囗")
	assert.NotContains(t, out, "rule 1")
}

func TestEvalTreeReportsUnknownAtoms(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "eval", "--tree", "開囗 三等", "--grade", "三")
	require.NoError(t, err)
	assert.Contains(t, out, `unknown atoms: ["開囗"]`)
	assert.True(t, strings.HasSuffix(out, "false\n"))
}
