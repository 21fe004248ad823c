package plugin

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/donutnomad/printgen/internal/utils"
	"golang.org/x/tools/go/packages"
)

// GeneratedSuffix 生成文件的统一后缀
const GeneratedSuffix = "_gen.go"

// FragmentFileName 根据片段 Key 计算输出文件名
// 示例：
//
//	"PrintableMarker"       → "printable_marker_gen.go"
//	"Point.Printables"      → "point_printables_gen.go"
//	"HTTPServer.PrintAllFields" → "http_server_print_all_fields_gen.go"
func FragmentFileName(key string) string {
	parts := strings.Split(key, ".")
	for i, part := range parts {
		parts[i] = utils.ToSnakeCase(part)
	}
	return strings.Join(parts, "_") + GeneratedSuffix
}

// IsGeneratedFile 检查是否是生成的文件
func IsGeneratedFile(filePath string) bool {
	return strings.HasSuffix(filepath.Base(filePath), GeneratedSuffix)
}

// PackageDir 返回包所在目录
func PackageDir(pkg *packages.Package) (string, error) {
	for _, files := range [][]string{pkg.GoFiles, pkg.CompiledGoFiles} {
		if len(files) > 0 {
			return filepath.Dir(files[0]), nil
		}
	}
	return "", fmt.Errorf("包 %s 没有源文件", pkg.PkgPath)
}

// outputFile 一个待写入的文件
type outputFile struct {
	path      string
	key       string
	generator string
	content   []byte
}

// resolveOutputs 将片段映射到输出文件，同一个包内的路径必须唯一
func resolveOutputs(dir, generator string, fragments []Fragment, seen map[string]string) ([]outputFile, error) {
	var files []outputFile
	for _, f := range fragments {
		path := filepath.Join(dir, FragmentFileName(f.Key))
		if owner, ok := seen[path]; ok {
			return nil, fmt.Errorf("片段 %q 的输出文件 %s 与 %s 冲突", f.Key, path, owner)
		}
		seen[path] = f.Key
		files = append(files, outputFile{
			path:      path,
			key:       f.Key,
			generator: generator,
			content:   f.Content,
		})
	}
	return files, nil
}
