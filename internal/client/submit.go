package client

import (
	"context"
	"errors"
	"fmt"

	"contactform/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgUnexpected     = "Unexpected error occurred."
	MsgServerFallback = "Something went wrong."
	MsgSuccessDefault = "Form submitted successfully!"
)

var (
	// ErrTransport 请求未完成（网络不可达）或响应体无法解析
	ErrTransport = errors.New("submission transport failure")
	// ErrServerRejection 服务端返回了格式正确的失败响应
	ErrServerRejection = errors.New("submission rejected by server")
)

// Kind 提交结果类型
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Result is the single outcome of one Submit call. Message is always safe to show
// to the user; Err carries the error kind for callers and logs.
type Result struct {
	Kind       Kind
	Message    string
	StatusCode int
	Err        error
}

func (r Result) OK() bool { return r.Kind == KindSuccess }

// Submitter 提交联系表单（便于在 Controller 测试中替换）
type Submitter interface {
	Submit(ctx context.Context, endpoint string, record models.ContactRecord) Result
}

// ContactClient posts contact records as JSON. It performs exactly one attempt per
// call and has no timeout of its own; ctx is the only cancellation.
type ContactClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewContactClient 创建提交客户端；baseURL 为空时 endpoint 必须是绝对地址
func NewContactClient(baseURL string, logger *zap.Logger) *ContactClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := resty.New().
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())
	if baseURL != "" {
		c.SetBaseURL(baseURL)
	}
	return &ContactClient{httpClient: c, logger: logger}
}

// Submit sends record to endpoint and maps the response onto a Result.
func (c *ContactClient) Submit(ctx context.Context, endpoint string, record models.ContactRecord) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID := uuid.NewString()
	log := c.logger.With(zap.String("request_id", requestID), zap.String("endpoint", endpoint))

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetBody(record).
		SetResult(&models.ContactResponse{}).
		SetError(&models.ContactResponse{}).
		ForceContentType("application/json").
		Post(endpoint)
	if resp == nil || resp.RawResponse == nil {
		if err == nil {
			err = errors.New("no response")
		}
		log.Error("Contact submission failed", zap.Error(err))
		return Result{Kind: KindError, Message: MsgUnexpected, Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}

	status := resp.StatusCode()
	if !resp.IsSuccess() {
		msg := fmt.Sprintf("HTTP error: %d", status)
		if body, ok := resp.Error().(*models.ContactResponse); ok && err == nil && body.Error != "" {
			msg = body.Error
		}
		log.Warn("Contact endpoint returned non-success status",
			zap.Int("status_code", status),
			zap.String("error", msg),
		)
		return Result{Kind: KindError, Message: msg, StatusCode: status, Err: ErrServerRejection}
	}

	// a 2xx whose body is not a JSON object (err from resty's decoder, or no body at all)
	if err == nil && len(resp.Body()) == 0 {
		err = errors.New("empty response body")
	}
	body, _ := resp.Result().(*models.ContactResponse)
	if err != nil || body == nil {
		log.Error("Failed to decode contact response",
			zap.Int("status_code", status),
			zap.Error(err),
		)
		return Result{Kind: KindError, Message: MsgUnexpected, StatusCode: status,
			Err: fmt.Errorf("%w: %v", ErrTransport, err)}
	}

	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = MsgServerFallback
		}
		log.Warn("Contact endpoint reported failure", zap.String("error", msg))
		return Result{Kind: KindError, Message: msg, StatusCode: status, Err: ErrServerRejection}
	}

	msg := body.Message
	if msg == "" {
		msg = MsgSuccessDefault
	}
	log.Info("Contact submission accepted", zap.Int("status_code", status))
	return Result{Kind: KindSuccess, Message: msg, StatusCode: status}
}
