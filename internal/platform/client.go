package platform

import (
	"codepulse_backend/internal/config"
	"codepulse_backend/internal/util"
	"codepulse_backend/pkg/logger"
	"codepulse_backend/pkg/monitoring"
	"codepulse_backend/pkg/tracing"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 16 << 20

// Client 按平台维护有序的上游来源列表，依次尝试直到拿到结构合法的结果
type Client struct {
	http      *http.Client
	timeout   time.Duration
	budget    time.Duration
	userAgent string
	retry     util.RetryPolicy
	sources   map[Platform][]source
	limiters  map[Platform]*rate.Limiter
}

func NewClient(cfg config.PlatformsConfig) *Client {
	c := &Client{
		timeout:   cfg.Timeout(),
		budget:    cfg.Budget(),
		userAgent: cfg.UserAgent,
		retry: util.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			MinBackoff:  cfg.Retry.MinBackoff(),
			MaxBackoff:  cfg.Retry.MaxBackoff(),
			Retryable:   retryable,
		},
		limiters: make(map[Platform]*rate.Limiter),
	}
	// 单次调用另有 context 超时，这里只兜底
	c.http = &http.Client{Timeout: c.timeout + 5*time.Second}

	for name, perMin := range cfg.RequestsPerMin {
		if perMin <= 0 {
			continue
		}
		c.limiters[Platform(name)] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
	}

	c.sources = map[Platform][]source{
		LeetCode: {
			{name: "leetcode-graphql", fetch: c.leetCodeGraphQL(cfg.LeetCode.GraphQLURL)},
			{name: "alfa-leetcode-api", fetch: c.leetCodeAlfa(cfg.LeetCode.AlfaAPIURL)},
			{name: "leetcode-stats-api", fetch: c.leetCodeStats(cfg.LeetCode.StatsAPIURL)},
		},
		Codeforces: {
			{name: "codeforces-api", fetch: c.codeforcesAPI(cfg.Codeforces.APIURL)},
			{name: "codeforces-profile", fetch: c.codeforcesProfile(cfg.Codeforces.ProfileURL)},
		},
		CodeChef: {
			{name: "codechef-profile", fetch: c.codeChefProfile(cfg.CodeChef.ProfileURL)},
			{name: "codechef-api", fetch: c.codeChefAPI(cfg.CodeChef.APIURL)},
		},
	}
	return c
}

// FetchCumulative 返回平台累计做题数。不会返回 error：所有来源失败时得到 StatusFailed 且 Solved=0。
func (c *Client) FetchCumulative(ctx context.Context, p Platform, handle string) Stat {
	ctx, span := tracing.Start(ctx, "platform.fetch")
	span.SetAttributes(attribute.String("platform", string(p)))
	defer span.End()

	log := logger.L().With(zap.String("platform", string(p)), zap.String("handle", handle))

	handle = strings.TrimSpace(handle)
	if handle == "" {
		return failed(p, ErrEmptyHandle)
	}
	sources, ok := c.sources[p]
	if !ok {
		return failed(p, fmt.Errorf("%w: %s", ErrUnknownPlatform, p))
	}

	// 整个平台的总时限，避免慢平台拖住同步请求
	ctx, cancel := context.WithTimeout(ctx, c.budgetFor(len(sources)))
	defer cancel()

	var errs []error
	for _, src := range sources {
		var stat Stat
		err := util.Retry(ctx, c.retry, func(ctx context.Context) error {
			if err := c.wait(ctx, p); err != nil {
				return err
			}
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			s, err := src.fetch(callCtx, handle)
			if err != nil {
				return err
			}
			stat = s
			return nil
		})
		if err == nil {
			monitoring.PlatformFetches.WithLabelValues(string(p), src.name, "ok").Inc()
			stat.Platform = p
			stat.Status = StatusOK
			stat.Source = src.name
			stat.Err = nil
			log.Debug("platform stat fetched", zap.String("source", src.name), zap.Int("solved", stat.Solved))
			return stat
		}

		monitoring.PlatformFetches.WithLabelValues(string(p), src.name, "error").Inc()
		log.Warn("platform source failed, trying next", zap.String("source", src.name), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", src.name, err))
		if ctx.Err() != nil {
			break
		}
	}

	err := errors.Join(errs...)
	log.Error("all platform sources failed, using zero", zap.Error(err))
	span.RecordError(err)
	return failed(p, err)
}

func (c *Client) budgetFor(sources int) time.Duration {
	if c.budget > 0 {
		return c.budget
	}
	return time.Duration(sources) * c.timeout
}

func (c *Client) wait(ctx context.Context, p Platform) error {
	l, ok := c.limiters[p]
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do 发送请求并返回限长后的响应体，非 2xx 返回 StatusError
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.Redacted()}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return malformed("decode json from %s: %v", req.URL.Host, err)
	}
	return nil
}
