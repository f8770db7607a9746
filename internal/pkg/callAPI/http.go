package callAPi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maxliu9403/common/gadget"
	"github.com/maxliu9403/common/httputil"
)

const (
	HTTPGet  = "get"
	HTTPPost = "post"

	// 测试端点的响应都很小，超过上限视为异常
	maxResponseBytes = 1 << 20
)

var ErrResponseTooLarge = errors.New("response body too large")

// DoHTTP 发送请求并读取完整响应，请求携带 ctx 中的 trace span
func DoHTTP(ctx context.Context, method, url string, sendOptions ...httputil.SendOption) (status int, respBytes []byte, err error) {
	if spanCtx, e := gadget.ExtractTraceSpan(ctx); e == nil {
		sendOptions = append(sendOptions, httputil.SendTraceCTX(spanCtx))
	}

	var resp *http.Response
	switch strings.ToLower(method) {
	case HTTPGet:
		resp, err = httputil.Get(url, sendOptions...) //nolint:bodyclose
	case HTTPPost:
		resp, err = httputil.Post(url, sendOptions...) //nolint:bodyclose
	default:
		return 0, nil, fmt.Errorf("unknown method %s", method)
	}
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBytes, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if len(respBytes) > maxResponseBytes {
		return resp.StatusCode, nil, fmt.Errorf("%w: %s", ErrResponseTooLarge, url)
	}
	return resp.StatusCode, respBytes, nil
}
