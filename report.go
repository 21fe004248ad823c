package main

import (
	"fmt"
	"io"

	"github.com/donutnomad/printgen/plugin"
	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	summaryColor = color.New(color.FgGreen)
)

func severityColor(s plugin.Severity) *color.Color {
	switch s {
	case plugin.SeverityError:
		return errorColor
	case plugin.SeverityWarning:
		return warningColor
	default:
		return infoColor
	}
}

// printDiagnostics 按级别着色输出诊断
func printDiagnostics(w io.Writer, diags []plugin.Diagnostic) {
	for _, d := range diags {
		label := severityColor(d.Severity).Sprintf("%s %s:", d.Severity, d.Code)
		if d.Position.IsValid() {
			_, _ = fmt.Fprintf(w, "%s: %s %s\n", d.Position, label, d.Message)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", label, d.Message)
	}
}

func printSummary(w io.Writer, stats *plugin.RunStats) {
	counts := plugin.CountBySeverity(stats.Diagnostics)
	_, _ = fmt.Fprintf(w, "\n统计: 处理 %d 个包, 生成 %d 个片段, 写入 %d 个文件, %d 个未变化\n",
		stats.PackageCount, stats.FragmentCount, stats.FileCount, stats.UnchangedCount)
	_, _ = fmt.Fprintf(w, "诊断: %d 个错误, %d 个警告, %d 个提示\n",
		counts[plugin.SeverityError], counts[plugin.SeverityWarning], counts[plugin.SeverityInfo])
	_, _ = summaryColor.Fprintf(w, "耗时: 扫描 %v, 生成 %v, 总计 %v\n",
		stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
}
