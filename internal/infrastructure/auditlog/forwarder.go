package auditlog

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/noodev8/lmslocal/internal/domain/audit"
	"github.com/noodev8/lmslocal/internal/platform/logging"
	"github.com/noodev8/lmslocal/internal/platform/resilience"
)

// ForwarderConfig configures the HTTP shipper for audit entries.
type ForwarderConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	// Async ships entries on background goroutines; Close drains them.
	Async   bool
	Breaker resilience.CircuitBreakerConfig
}

// Forwarder ships audit entries to an external collector over HTTP. Delivery
// is best-effort: a failed or rejected send is logged and dropped, never
// surfaced to the write path that produced the entry.
type Forwarder struct {
	client   *fasthttp.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
	async    bool
	breaker  *resilience.CircuitBreaker
	logger   *logging.Logger
	wg       conc.WaitGroup
}

func NewForwarder(cfg ForwarderConfig, logger *logging.Logger) *Forwarder {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Breaker.Enabled {
		normalized := resilience.NormalizeCircuitBreakerConfig(cfg.Breaker)
		breaker = resilience.NewCircuitBreaker(normalized.FailureThreshold, normalized.OpenTimeout, normalized.HalfOpenMaxReq)
	}

	return &Forwarder{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		endpoint: strings.TrimSpace(cfg.Endpoint),
		apiKey:   strings.TrimSpace(cfg.APIKey),
		timeout:  timeout,
		async:    cfg.Async,
		breaker:  breaker,
		logger:   logger,
	}
}

type entryPayload struct {
	CompetitionID string `json:"competitionId"`
	UserID        string `json:"userId,omitempty"`
	ActorID       string `json:"actorId,omitempty"`
	Action        string `json:"action"`
	Detail        string `json:"detail,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// Record implements audit.Repository on top of the forwarder, so it can be
// stacked behind the database writer for off-box retention.
func (f *Forwarder) Record(ctx context.Context, entry audit.Entry) error {
	if f.endpoint == "" {
		return nil
	}

	if f.async {
		f.wg.Go(func() {
			f.ship(entry)
		})
		return nil
	}

	f.ship(entry)
	return nil
}

// Close waits for in-flight async sends.
func (f *Forwarder) Close() {
	f.wg.Wait()
}

func (f *Forwarder) ship(entry audit.Entry) {
	if f.breaker != nil {
		if err := f.breaker.Allow(); err != nil {
			f.logger.Warn("audit forward skipped", "action", string(entry.Action), "error", err)
			return
		}
	}

	err := f.send(entry)
	if f.breaker != nil {
		if err != nil {
			f.breaker.RecordFailure()
		} else {
			f.breaker.RecordSuccess()
		}
	}
	if err != nil {
		f.logger.Warn("audit forward failed", "action", string(entry.Action), "error", err)
	}
}

func (f *Forwarder) send(entry audit.Entry) error {
	payload := entryPayload{
		CompetitionID: entry.CompetitionID,
		UserID:        entry.UserID,
		ActorID:       entry.ActorID,
		Action:        string(entry.Action),
		Detail:        entry.Detail,
		CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal audit payload")
	}
	if _, err := buf.Write(body); err != nil {
		return crerr.Wrap(err, "buffer audit payload")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(f.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}
	req.SetBody(buf.B)

	if err := f.client.DoTimeout(req, resp, f.timeout); err != nil {
		return crerr.Wrap(err, "post audit entry")
	}
	if code := resp.StatusCode(); code/100 != 2 {
		return crerr.Newf("audit collector returned status %d", code)
	}

	return nil
}
