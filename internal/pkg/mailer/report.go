package mailer

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/maxliu9403/common/logger"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/maxliu9403/ProxyBoard/internal/logic/reconcile"
	"github.com/maxliu9403/ProxyBoard/models"
)

const reportMarkdownTpl = `
# ProxyBoard 测试报告

- 操作ID：{{ .Op.ID }}
- 状态：{{ .Op.Status }}
- 进度：{{ .Op.Processed }}/{{ .Op.Total }}
- 耗时：{{ .Summary.DurationMs }} ms

| 指标 | 数值 |
|------|------|
| 已测试 | {{ .Summary.Tested }} |
| 可用 | {{ .Summary.Valid }} |
| 不可用 | {{ .Summary.Invalid }} |
| 成功率 | {{ printf "%.1f" .Summary.SuccessRatePct }}% |
| 平均质量分 | {{ printf "%.1f" .Summary.AvgQualityScore }} |
| 平均延迟 | {{ printf "%.0f" .Summary.AvgPingMs }} ms |
| 平均速度 | {{ printf "%.1f" .Summary.AvgSpeedKBps }} KB/s |
`

var (
	reportTpl = template.Must(template.New("report_md").Parse(reportMarkdownTpl))
	md        = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

type reportData struct {
	Op      models.BulkOperation
	Summary reconcile.RunSummary
}

func MarkdownToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func RenderReportMarkdown(op models.BulkOperation, summary reconcile.RunSummary) (string, error) {
	var buf bytes.Buffer
	if err := reportTpl.Execute(&buf, reportData{Op: op, Summary: summary}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderReport 返回邮件主题和 HTML 正文
func RenderReport(op models.BulkOperation, summary reconcile.RunSummary) (subject, body string, err error) {
	text, err := RenderReportMarkdown(op, summary)
	if err != nil {
		return "", "", err
	}
	body, err = MarkdownToHTML(text)
	if err != nil {
		return "", "", err
	}
	subject = fmt.Sprintf("[ProxyBoard] %d/%d proxies alive (%s)", summary.Valid, summary.Tested, time.Now().Format("2006-01-02 15:04"))
	return subject, body, nil
}

// Reporter sends one mail per finished bulk test, asynchronously.
func Reporter(cfg MailConfig) func(ctx context.Context, op models.BulkOperation, summary reconcile.RunSummary) {
	return reporter(cfg, SendMail)
}

func reporter(cfg MailConfig, send func(MailConfig, string, string) error) func(context.Context, models.BulkOperation, reconcile.RunSummary) {
	return func(ctx context.Context, op models.BulkOperation, summary reconcile.RunSummary) {
		if summary.Tested == 0 {
			return
		}
		subject, body, err := RenderReport(op, summary)
		if err != nil {
			logger.ErrorfWithTrace(ctx, "render report of operation %s failed: %s", op.ID, err.Error())
			return
		}
		go func() {
			if err := send(cfg, subject, body); err != nil {
				logger.ErrorfWithTrace(ctx, "send report of operation %s failed: %s", op.ID, err.Error())
			}
		}()
	}
}
