package callAPi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/maxliu9403/common/httputil"
	"github.com/maxliu9403/common/logger"
)

var ErrStatus = errors.New("unexpected http status")

// CallAPI 默认发起POST请求, 返回 HTTP 状态码
//
// A status >= 400 is reported as ErrStatus; the body is decoded into resp
// only for successful responses.
func CallAPI(ctx context.Context, url string, params, resp interface{}, options ...CallOption) (status int, err error) {
	opts := newCallOptions(options...)

	sendBody, err := json.Marshal(&params)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	timeOut := opts.timeout
	// 调用方的 deadline 更短时以它为准
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeOut {
			timeOut = left
		}
	}
	if timeOut <= 0 {
		return 0, context.DeadlineExceeded
	}

	logger.Debugf("request url is %s, params: %s", url, string(sendBody))
	requestOpts := []httputil.SendOption{
		httputil.SendBody(bytes.NewReader(sendBody)),
		httputil.SendHeaders(opts.headers()),
		httputil.SendTimeout(timeOut),
	}

	status, bodyByte, err := DoHTTP(ctx, opts.method, url, requestOpts...)
	if err != nil {
		return status, err
	}
	if status >= 400 {
		return status, fmt.Errorf("%w: %d from %s", ErrStatus, status, url)
	}

	logger.Debugf("response of url %s is: %s", url, string(bodyByte))
	if resp == nil || len(bytes.TrimSpace(bodyByte)) == 0 {
		return status, nil
	}
	if err = json.Unmarshal(bodyByte, resp); err != nil {
		return status, fmt.Errorf("decode response of %s: %w", url, err)
	}
	return status, nil
}
