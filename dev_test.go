package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/donutnomad/printgen/printgen"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestIsGeneratedFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"models/point_printables_gen.go", true},
		{"models/printable_marker_gen.go", true},
		{"models/point_test.go", true},
		{"models/point.go", false},
		{"models/generator.go", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isGeneratedFile(tt.path))
		})
	}
}

func TestCollectWatchDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"models", "models/inner", "vendor/lib", ".git", "testdata"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	ignored := func(name string) bool { return name == "vendor" || name == "testdata" }

	dirs, err := collectWatchDirs([]string{root + "/..."}, ignored)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "models"),
		filepath.Join(root, "models", "inner"),
	}, dirs)

	// 非递归只收集目录本身，重复的路径只出现一次
	dirs, err = collectWatchDirs([]string{filepath.Join(root, "models"), filepath.Join(root, "models")}, ignored)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "models")}, dirs)

	_, err = collectWatchDirs([]string{filepath.Join(root, "missing")}, ignored)
	assert.Error(t, err)
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTags(" a, b,,a "))
	assert.Empty(t, splitTags(""))
}

func TestDevRunner_SchedulesGeneration(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	require.NoError(t, watcher.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := newDevRunner(ctx, watcher, printgen.NewGenerator().QuickMatch, 10*time.Millisecond, zaptest.NewLogger(t))
	triggered := make(chan string, 16)
	runner.generate = func(_ context.Context, pkgDir string) {
		triggered <- pkgDir
	}

	done := make(chan error, 1)
	go func() {
		done <- runner.watchLoop(ctx)
	}()

	// 生成文件和没有注解的文件不会触发生成
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("point_printables_gen.go", "package demo\n\n// @Printable\n")
	write("plain.go", "package demo\n\ntype A struct{ X int }\n")
	write("point.go", "package demo\n\ntype Point struct {\n\tX int // @Printable\n}\n")

	select {
	case got := <-triggered:
		assert.Equal(t, dir, got)
	case <-time.After(5 * time.Second):
		t.Fatal("等待生成超时")
	}

	cancel()
	require.NoError(t, <-done)
	runner.stopPending()
	require.NoError(t, watcher.Close())
}

func TestDevRunner_SkipsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.go")
	require.NoError(t, os.WriteFile(path, []byte("package demo\n\ntype Point struct {\n\tX int // @Printable\n"), 0o644))
	assert.Error(t, checkSyntax(path))

	runner := newDevRunner(context.Background(), nil, printgen.NewGenerator().QuickMatch, time.Millisecond, zaptest.NewLogger(t))
	runner.generate = func(context.Context, string) {
		t.Error("语法错误的文件不应触发生成")
	}
	runner.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Empty(t, runner.pendingDirs)
}
