package callAPi

import "time"

const defaultTimeout = 3 * time.Second

type callOptions struct {
	timeout time.Duration
	header  map[string]string
	extra   map[string]string
	method  string
}

type CallOption func(*callOptions)

func SetMethod(method string) CallOption {
	return func(o *callOptions) { o.method = method }
}

// SetHeader 替换全部默认请求头
func SetHeader(header map[string]string) CallOption {
	return func(o *callOptions) { o.header = header }
}

// AddHeader 在默认请求头之上追加或覆盖单个字段
func AddHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.extra == nil {
			o.extra = make(map[string]string)
		}
		o.extra[key] = value
	}
}

func SetTimeout(timeOut time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = timeOut }
}

func newCallOptions(options ...CallOption) *callOptions {
	o := &callOptions{timeout: defaultTimeout, method: HTTPPost}
	for _, fn := range options {
		fn(o)
	}
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}
	if o.method == "" {
		o.method = HTTPPost
	}
	return o
}

func (o *callOptions) headers() map[string]string {
	h := map[string]string{"Content-Type": "application/json", "operator": "ProxyBoard", "User-Agent": "ProxyBoard"}
	if len(o.header) != 0 {
		h = make(map[string]string, len(o.header)+len(o.extra))
		for k, v := range o.header {
			h[k] = v
		}
	}
	for k, v := range o.extra {
		h[k] = v
	}
	return h
}
