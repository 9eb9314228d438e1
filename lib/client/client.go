package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/unikv/unikv/lib/backend"
	"github.com/unikv/unikv/lib/codec"
	"github.com/unikv/unikv/lib/hook"
)

var Logger = logger.GetLogger("client")

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

// clientImpl implements Client. The configured backend, codec and
// dispatcher are shared read-only across all operations; the client holds
// no lock across an operation.
type clientImpl struct {
	backend backend.Backend
	codec   codec.Codec
	hooks   *hook.Dispatcher
}

// Option customizes client behavior.
type Option func(*clientImpl)

// WithCodec sets the value codec. Default: JSON.
func WithCodec(c codec.Codec) Option {
	return func(impl *clientImpl) {
		if c != nil {
			impl.codec = c
		}
	}
}

// WithDispatcher shares an existing hook dispatcher instead of the client's
// own. Useful when several clients should feed one set of hooks.
func WithDispatcher(d *hook.Dispatcher) Option {
	return func(impl *clientImpl) {
		if d != nil {
			impl.hooks = d
		}
	}
}

// New creates a Client on top of the given backend.
// Optional backend capabilities (health, batch) are discovered with type
// assertions at call time, never required up front.
func New(b backend.Backend, opts ...Option) Client {
	impl := &clientImpl{
		backend: b,
		codec:   codec.NewJSONCodec(),
		hooks:   hook.NewDispatcher(),
	}
	for _, opt := range opts {
		opt(impl)
	}
	return impl
}

// track counts an operation and, if it failed, its error.
func track(op string, err error) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`unikv_ops_total{op=%q}`, op)).Inc()
	if err != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(`unikv_op_errors_total{op=%q}`, op)).Inc()
	}
}

// checkKey rejects empty keys before any backend I/O.
func checkKey(op, key string) error {
	if key == "" {
		return newError(KindValidation, op, "", errors.New("empty key"))
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see client.Client)
// --------------------------------------------------------------------------

func (c *clientImpl) Set(ctx context.Context, key string, value any) (err error) {
	defer func() { track("set", err) }()

	if err = checkKey("Set", key); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	data, encErr := c.codec.Encode(ctx, value)
	if encErr != nil {
		return newError(KindEncode, "Set", key, encErr)
	}

	if beErr := c.backend.SetRaw(ctx, key, data); beErr != nil {
		Logger.Errorf("Set %s failed: %v", key, beErr)
		return newError(KindBackend, "Set", key, beErr)
	}

	c.hooks.Dispatch(ctx, hook.Event{Type: hook.EventSet, Key: key, Value: data})
	return nil
}

func (c *clientImpl) SetRaw(ctx context.Context, key string, value []byte) (err error) {
	defer func() { track("setraw", err) }()

	if err = checkKey("SetRaw", key); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	if beErr := c.backend.SetRaw(ctx, key, value); beErr != nil {
		Logger.Errorf("SetRaw %s failed: %v", key, beErr)
		return newError(KindBackend, "SetRaw", key, beErr)
	}

	c.hooks.Dispatch(ctx, hook.Event{Type: hook.EventSetRaw, Key: key, Value: value})
	return nil
}

func (c *clientImpl) Get(ctx context.Context, key string, dest any) (err error) {
	defer func() { track("get", err) }()

	data, getErr := c.GetRaw(ctx, key)
	if getErr != nil {
		return getErr
	}

	if decErr := c.codec.Decode(ctx, data, dest); decErr != nil {
		return newError(KindDecode, "Get", key, decErr)
	}
	return nil
}

func (c *clientImpl) GetRaw(ctx context.Context, key string) (data []byte, err error) {
	defer func() { track("getraw", err) }()

	if err = checkKey("Get", key); err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	data, beErr := c.backend.GetRaw(ctx, key)
	if beErr != nil {
		if errors.Is(beErr, backend.ErrNotFound) {
			return nil, newError(KindNotFound, "Get", key, beErr)
		}
		Logger.Errorf("Get %s failed: %v", key, beErr)
		return nil, newError(KindBackend, "Get", key, beErr)
	}
	return data, nil
}

func (c *clientImpl) Delete(ctx context.Context, key string) (err error) {
	defer func() { track("delete", err) }()

	if err = checkKey("Delete", key); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	if beErr := c.backend.Delete(ctx, key); beErr != nil {
		Logger.Errorf("Delete %s failed: %v", key, beErr)
		return newError(KindBackend, "Delete", key, beErr)
	}

	c.hooks.Dispatch(ctx, hook.Event{Type: hook.EventDelete, Key: key})
	return nil
}

func (c *clientImpl) List(ctx context.Context, prefix string) (keys []string, err error) {
	defer func() { track("list", err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	keys, beErr := c.backend.List(ctx, prefix)
	if beErr != nil {
		Logger.Errorf("List %s failed: %v", prefix, beErr)
		return nil, newError(KindBackend, "List", prefix, beErr)
	}
	return keys, nil
}

func (c *clientImpl) HasKey(ctx context.Context, key string) (bool, error) {
	_, err := c.GetRaw(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *clientImpl) HasKeys(ctx context.Context, keys []string) (bool, error) {
	if len(keys) == 0 {
		return false, newError(KindValidation, "HasKeys", "", errors.New("empty key list"))
	}

	for _, key := range keys {
		ok, err := c.HasKey(ctx, key)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c *clientImpl) MatchKeys(ctx context.Context, prefix string, predicate func(keys []string) bool) (bool, error) {
	if predicate == nil {
		return false, newError(KindValidation, "MatchKeys", prefix, errors.New("nil predicate"))
	}

	keys, err := c.List(ctx, prefix)
	if err != nil {
		return false, err
	}
	return predicate(keys), nil
}

func (c *clientImpl) Health(ctx context.Context) (err error) {
	defer func() { track("health", err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	checker, ok := c.backend.(backend.HealthChecker)
	if !ok {
		return newError(KindCapability, "Health", "",
			fmt.Errorf("backend %T does not implement health checks", c.backend))
	}

	if beErr := checker.Health(ctx); beErr != nil {
		return newError(KindBackend, "Health", "", beErr)
	}
	return nil
}

func (c *clientImpl) Hooks() *hook.Dispatcher {
	return c.hooks
}

func (c *clientImpl) Close() error {
	return c.backend.Close()
}

// --------------------------------------------------------------------------
// Typed Helpers
// --------------------------------------------------------------------------

// GetAs loads and decodes the value stored under key.
func GetAs[T any](ctx context.Context, c Client, key string) (T, error) {
	var value T
	err := c.Get(ctx, key, &value)
	return value, err
}

// BatchGetAs loads all existing keys and decodes every value into T using
// the client's codec. Absent keys are simply missing from the result.
func BatchGetAs[T any](ctx context.Context, c Client, keys []string) (map[string]T, error) {
	impl, ok := c.(*clientImpl)
	if !ok {
		return nil, newError(KindValidation, "BatchGet", "", errors.New("unsupported client implementation"))
	}

	raw, err := c.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	result := make(map[string]T, len(raw))
	for key, data := range raw {
		var value T
		if decErr := impl.codec.Decode(ctx, data, &value); decErr != nil {
			return nil, newError(KindDecode, "BatchGet", key, decErr)
		}
		result[key] = value
	}
	return result, nil
}
